package resolver

import (
	"vemoji/common/snowflake"
)

const (
	EventTypeEmojiResolved = iota

	EventTypePreloadTierStarted = iota
	EventTypePreloadFinished    = iota
)

type Event struct {
	Type int         `json:"type"`
	Data interface{} `json:"data"`
}

type EmojiResolvedEvent struct {
	Key    string `json:"key"`
	ID     int64  `json:"id"`
	Source string `json:"source"`
	URL    string `json:"url"`
}

type PreloadTierStartedEvent struct {
	Run   snowflake.Snowflake `json:"run"`
	Tier  string              `json:"tier"`
	Count int                 `json:"count"`
}

type PreloadFinishedEvent struct {
	Run     snowflake.Snowflake `json:"run"`
	Loaded  int                 `json:"loaded"`
	Failed  int                 `json:"failed"`
	Skipped int                 `json:"skipped"`
}

func OnEmojiResolved(msg *EmojiResolvedEvent) {
	gw.Relay(Event{
		Type: EventTypeEmojiResolved,
		Data: msg,
	})
}

func OnPreloadTierStarted(msg *PreloadTierStartedEvent) {
	gw.Relay(Event{
		Type: EventTypePreloadTierStarted,
		Data: msg,
	})
}

func OnPreloadFinished(msg *PreloadFinishedEvent) {
	gw.Relay(Event{
		Type: EventTypePreloadFinished,
		Data: msg,
	})
}
