package chat

type Link struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// WidgetLinks is the static sidebar content the widget renders around the chat.
type WidgetLinks struct {
	Docs           []Link   `json:"docs"`
	Platforms      []Link   `json:"platforms"`
	QuickQuestions []string `json:"quickQuestions"`
}

var defaultLinks = WidgetLinks{
	Docs: []Link{
		{Name: "Segment Documentation", URL: "https://segment.com/docs/?ref=nav"},
		{Name: "mParticle Documentation", URL: "https://docs.mparticle.com/"},
		{Name: "Lytics Documentation", URL: "https://docs.lytics.com/"},
		{Name: "Zeotap Documentation", URL: "https://docs.zeotap.com/home/en-us/"},
	},
	Platforms: []Link{
		{Name: "Segment", URL: "https://segment.com/"},
		{Name: "mParticle", URL: "https://www.mparticle.com/"},
		{Name: "Lytics", URL: "https://www.lytics.com/"},
		{Name: "Zeotap", URL: "https://zeotap.com/"},
	},
	QuickQuestions: []string{
		"How does Segment compare to mParticle?",
		"What are Zeotap's main features?",
		"How can I implement user tracking in Lytics?",
		"What's the best CDP for e-commerce?",
	},
}
