package notification

// Envelope is one logical notification aimed at a zone's residents. It is
// built per schedule mutation or reminder tick and consumed immediately;
// nothing persists it.
type Envelope struct {
	ZoneID   string
	Title    string
	Body     string
	Metadata map[string]string
}
