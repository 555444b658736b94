package interfaces

import "github.com/seazero-dotcom/CryptoTraderPro/src/models"

// -----------------------------------------------------------------------------
// ISubscriber is an opaque handle to one open relay connection.
// -----------------------------------------------------------------------------

type ISubscriber interface {

	// Send delivers one relay message to the subscriber. It must not block:
	// a subscriber that cannot accept the message right now returns an error
	// and the relay drops it from the registry. Subscribers share no mutable
	// state with each other.
	Send(msg *models.MRelayMessage) error
}
