package interfaces

// -----------------------------------------------------------------------------
// IDataExchanger defining the interface for pushing dashboard snapshots to display clients.
// -----------------------------------------------------------------------------

type IDataExchanger interface {
	// -----------------------------------------------------------------------------
	// Broadcast pushes a fresh snapshot of one panel to subscribed listeners
	// and caches it as the panel's latest state.
	Broadcast(channel string, payload interface{})

	// -----------------------------------------------------------------------------
	// Start the server
	Start() error

	// -----------------------------------------------------------------------------
	// Stop the server gracefully
	Stop() error
}
