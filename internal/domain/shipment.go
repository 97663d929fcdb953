package domain

// Container is a single shipping container belonging to a shipment.
// The container number is the join key against the tracking source.
// Numbers are unique within one shipment; global uniqueness is not
// guaranteed and must not be assumed outside lookup-scoped maps.
type Container struct {
	ContainerNumber string
}

// Shipment as returned by the shipment-management source.
// Immutable once returned; owned by the orchestrator for the duration
// of a single analysis pass.
type Shipment struct {
	ShipmentID   string
	CustomerName string
	ShipperName  string
	Containers   []Container
}
