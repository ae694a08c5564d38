// internal/broker/handlers.go
package broker

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/tamzrod/automation-gateway/internal/protocol"
)

// dispatch translates one inbound MQTT message into a board command.
// Topic channel numbers are 1-based, matching the published status
// arrays read left to right.
func (b *Bridge) dispatch(ctx context.Context, topic, rawPayload string) error {
	payload := strings.ToUpper(strings.TrimSpace(rawPayload))

	switch {
	case strings.HasPrefix(topic, b.cfg.TopicPrefix+"/relay/"):
		ch, err := wireChannel(topic)
		if err != nil {
			return err
		}
		on := payload == "ON" || payload == "1" || payload == "TRUE"
		cmd, err := protocol.SetRelay(b.variant, ch-1, on)
		if err != nil {
			return err
		}
		_, err = b.link.Submit(ctx, cmd)
		return err

	case strings.HasPrefix(topic, b.cfg.TopicPrefix+"/output/"):
		ch, err := wireChannel(topic)
		if err != nil {
			return err
		}
		var value int
		switch payload {
		case "ON", "TRUE":
			value = 100
		case "OFF", "FALSE":
			value = 0
		default:
			value, err = strconv.Atoi(payload)
			if err != nil {
				return fmt.Errorf("broker: output payload %q is not a percentage", rawPayload)
			}
		}
		cmd, err := protocol.SetOutput(b.variant, ch-1, value)
		if err != nil {
			return err
		}
		_, err = b.link.Submit(ctx, cmd)
		return err

	case topic == b.cfg.TopicPrefix+"/command":
		switch payload {
		case "RESET":
			_, err := b.link.Submit(ctx, protocol.Reset())
			return err
		case "STATUS":
			b.requestPublish()
			return nil
		default:
			return fmt.Errorf("broker: unknown command %q", rawPayload)
		}
	}

	return fmt.Errorf("broker: unhandled topic %q", topic)
}

func wireChannel(topic string) (int, error) {
	n, err := strconv.Atoi(topic[strings.LastIndexByte(topic, '/')+1:])
	if err != nil {
		return 0, fmt.Errorf("broker: topic %q has no channel number", topic)
	}
	return n, nil
}
