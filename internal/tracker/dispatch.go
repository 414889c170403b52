package tracker

import (
	"encoding/json"
	"log"

	"github.com/streambeat/streambeat/internal/model"
)

// Dispatch routes one relay event line to the matching lifecycle handler.
// Malformed lines and unknown event kinds are swallowed and reported to the
// operator log; nothing here ever propagates a failure to the event feed.
func (t *Tracker) Dispatch(env model.EventEnvelope) {
	var raw map[string]interface{}
	if err := json.Unmarshal([]byte(env.Line), &raw); err != nil {
		log.Printf("tracker: dropping malformed event from %s: %v", env.Source, err)
		return
	}

	event, _ := raw["event"].(string)
	id, _ := raw["id"].(string)
	streamPath, _ := raw["streamPath"].(string)
	delete(raw, "event")

	switch event {
	case "preConnect":
		t.PreConnect(id, raw)
	case "postConnect":
		t.PostConnect(id, raw)
	case "doneConnect":
		t.DoneConnect(id, raw)
	case "prePublish":
		t.PrePublish(id, streamPath, raw)
	case "postPublish":
		t.PostPublish(id, streamPath, raw)
	case "donePublish":
		t.DonePublish(id, streamPath, raw)
	case "prePlay":
		t.PrePlay(id, streamPath, raw)
	case "postPlay":
		t.PostPlay(id, streamPath, raw)
	case "donePlay":
		t.DonePlay(id, streamPath, raw)
	default:
		log.Printf("tracker: unknown event kind %q from %s", event, env.Source)
	}
}
