package mqtt

import (
	"errors"
	"testing"
)

func TestTopics_Builders(t *testing.T) {
	topics := Topics{}

	tests := []struct {
		name string
		got  string
		want string
	}{
		{name: "device status", got: topics.DeviceStatus("pp-0042"), want: "peluprice/devices/pp-0042/status"},
		{name: "device heartbeat", got: topics.DeviceHeartbeat("pp-0042"), want: "peluprice/devices/pp-0042/heartbeat"},
		{name: "device data", got: topics.DeviceData("pp-0042"), want: "peluprice/devices/pp-0042/data"},
		{name: "device commands", got: topics.DeviceCommands("pp-0042"), want: "peluprice/devices/pp-0042/commands"},
		{name: "all status", got: topics.AllDeviceStatus(), want: "peluprice/devices/+/status"},
		{name: "all heartbeats", got: topics.AllDeviceHeartbeats(), want: "peluprice/devices/+/heartbeat"},
		{name: "all data", got: topics.AllDeviceData(), want: "peluprice/devices/+/data"},
		{name: "system status", got: topics.SystemStatus(), want: "peluprice/system/status"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}

func TestParseDeviceTopic(t *testing.T) {
	tests := []struct {
		name        string
		topic       string
		wantID      string
		wantChannel string
		wantErr     bool
	}{
		{
			name:        "heartbeat topic",
			topic:       "peluprice/devices/pp-0042/heartbeat",
			wantID:      "pp-0042",
			wantChannel: "heartbeat",
		},
		{
			name:        "data topic",
			topic:       "peluprice/devices/abc/data",
			wantID:      "abc",
			wantChannel: "data",
		},
		{
			name:    "wrong prefix",
			topic:   "other/devices/x/status",
			wantErr: true,
		},
		{
			name:    "system topic",
			topic:   "peluprice/system/status",
			wantErr: true,
		},
		{
			name:    "too many segments",
			topic:   "peluprice/devices/x/status/extra",
			wantErr: true,
		},
		{
			name:    "wildcard id",
			topic:   "peluprice/devices/+/status",
			wantErr: true,
		},
		{
			name:    "empty",
			topic:   "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, channel, err := ParseDeviceTopic(tt.topic)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidTopic) {
					t.Errorf("ParseDeviceTopic(%q) error = %v, want ErrInvalidTopic", tt.topic, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseDeviceTopic(%q) error = %v", tt.topic, err)
			}
			if id != tt.wantID || channel != tt.wantChannel {
				t.Errorf("ParseDeviceTopic(%q) = (%q, %q), want (%q, %q)",
					tt.topic, id, channel, tt.wantID, tt.wantChannel)
			}
		})
	}
}

// RoundTrip: builders produce topics the parser accepts.
func TestParseDeviceTopic_AcceptsBuilderOutput(t *testing.T) {
	topics := Topics{}

	for _, topic := range []string{
		topics.DeviceStatus("d1"),
		topics.DeviceHeartbeat("d1"),
		topics.DeviceData("d1"),
		topics.DeviceCommands("d1"),
	} {
		id, _, err := ParseDeviceTopic(topic)
		if err != nil {
			t.Errorf("ParseDeviceTopic(%q) error = %v", topic, err)
			continue
		}
		if id != "d1" {
			t.Errorf("ParseDeviceTopic(%q) id = %q, want d1", topic, id)
		}
	}
}
