package services

import (
	"fmt"
	"log/slog"

	pubnub "github.com/pubnub/go"

	"ticket-marketplace/models"
)

// PubNubNotifier pushes purchase updates to the buyer's channel and the
// event's inventory channel. Publishing happens in the background.
type PubNubNotifier struct {
	pn *pubnub.PubNub
}

func NewPubNubNotifier(pn *pubnub.PubNub) *PubNubNotifier {
	return &PubNubNotifier{pn: pn}
}

func (n *PubNubNotifier) PurchaseCompleted(userID string, receipt models.Receipt) {
	go n.publish(fmt.Sprintf("user-%s", userID), map[string]any{
		"type":         "purchase_success",
		"order_id":     receipt.OrderID,
		"event_id":     receipt.EventID,
		"quantity":     receipt.Quantity,
		"total_amount": receipt.TotalAmount.StringFixed(2),
		"ticket_code":  receipt.TicketCode,
	})

	go n.publish(fmt.Sprintf("event-%s", receipt.EventID), map[string]any{
		"type":             "inventory_update",
		"event_id":         receipt.EventID,
		"remaining_passes": receipt.RemainingPasses,
	})
}

func (n *PubNubNotifier) publish(channel string, message map[string]any) {
	if _, _, err := n.pn.Publish().Channel(channel).Message(message).Execute(); err != nil {
		slog.Warn("PubNub publish failed", "channel", channel, "error", err)
	}
}

// NopNotifier is used when no PubNub keys are configured.
type NopNotifier struct{}

func (NopNotifier) PurchaseCompleted(string, models.Receipt) {}
