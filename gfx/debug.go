package gfx

import (
	"github.com/koyote-engine/koyote/gfx/driver"
	"github.com/sirupsen/logrus"
)

// DebugBridge forwards native diagnostics to the logger.
type DebugBridge struct {
	messenger driver.DebugMessenger
}

// NewDebugBridge subscribes to every severity and to validation and
// performance messages, plus general ones when general is set.
func NewDebugBridge(instance driver.Instance, general bool, log logrus.FieldLogger) (*DebugBridge, error) {
	types := driver.MessageTypeValidation | driver.MessageTypePerformance
	if general {
		types |= driver.MessageTypeGeneral
	}

	messenger, err := instance.CreateDebugMessenger(driver.DebugMessengerCreateInfo{
		Severities: driver.AllSeverities,
		Types:      types,
		Callback:   DebugCallback(log),
	})
	if err != nil {
		return nil, err
	}
	return &DebugBridge{messenger: messenger}, nil
}

func (b *DebugBridge) Destroy() {
	if b == nil || b.messenger == nil {
		return
	}
	b.messenger.Destroy()
	b.messenger = nil
}

// DebugCallback logs each message at the level matching its highest
// severity bit. It never asks the native layer to abort the call.
func DebugCallback(log logrus.FieldLogger) driver.DebugCallback {
	return func(msg driver.DebugMessage) bool {
		entry := log.WithFields(logrus.Fields{
			"severity": msg.Severity.String(),
			"type":     msg.Type.String(),
		})

		switch {
		case msg.Severity&driver.SeverityError != 0:
			entry.Errorf("VULKAN | %s | %s", msg.Type, msg.Message)
		case msg.Severity&driver.SeverityWarning != 0:
			entry.Warnf("VULKAN | %s | %s", msg.Type, msg.Message)
		case msg.Severity&driver.SeverityInfo != 0:
			entry.Infof("VULKAN | %s | %s", msg.Type, msg.Message)
		default:
			entry.Tracef("VULKAN | %s | %s", msg.Type, msg.Message)
		}
		return false
	}
}
