package schemas

const (
	// PlayCollection is the collection every inscribed play is written into.
	PlayCollection string = "fm.teal.alpha.feed.play"

	PlayEventType string = "fm.teal.play.created"
)
