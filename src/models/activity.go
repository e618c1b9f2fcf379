package models

// MLogEntry is one line of the activity terminal.
type MLogEntry struct {
	ID   string `json:"id"`
	Text string `json:"text"`
	Time string `json:"time"`
}

// MActivitySnapshot lists entries oldest first; Capacity is the retention bound.
type MActivitySnapshot struct {
	Entries   []MLogEntry `json:"entries"`
	Capacity  int         `json:"capacity"`
	Timestamp int64       `json:"timestamp"`
}
