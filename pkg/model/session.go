package model

// Session is the single logged-in identity of this journal. It has no
// expiry and is never cleared.
type Session struct {
	Name    string `json:"name"`
	LoginAt int64  `json:"loginAt"`
}
