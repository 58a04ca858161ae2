package mpris

import (
	"reflect"
	"testing"

	"github.com/godbus/dbus/v5"
)

func fullProps() map[string]dbus.Variant {
	return map[string]dbus.Variant{
		"PlaybackStatus": dbus.MakeVariant("Playing"),
		"Shuffle":        dbus.MakeVariant(true),
		"LoopStatus":     dbus.MakeVariant("Track"),
		"Position":       dbus.MakeVariant(int64(12_000_000)),
		"Metadata": dbus.MakeVariant(map[string]dbus.Variant{
			"xesam:title":          dbus.MakeVariant("Harvest Moon"),
			"xesam:artist":         dbus.MakeVariant([]string{"Neil Young"}),
			"xesam:album":          dbus.MakeVariant("Harvest Moon"),
			"xesam:genre":          dbus.MakeVariant([]string{"Folk", "Rock"}),
			"xesam:trackNumber":    dbus.MakeVariant(int32(3)),
			"xesam:discNumber":     dbus.MakeVariant(int32(1)),
			"xesam:contentCreated": dbus.MakeVariant("1992-10-27"),
			"mpris:length":         dbus.MakeVariant(int64(303_000_000)),
			"mpris:artUrl":         dbus.MakeVariant("file:///tmp/cover.jpg"),
			"mpris:trackid":        dbus.MakeVariant(dbus.ObjectPath("/org/mpd/Tracks/3")),
		}),
	}
}

func TestDecodePlayerInfo(t *testing.T) {
	info := decodePlayerInfo(fullProps())
	if info == nil {
		t.Fatal("decodePlayerInfo returned nil for a full property set")
	}

	want := &PlayerInfo{
		Title:          "Harvest Moon",
		Artists:        []string{"Neil Young"},
		Album:          "Harvest Moon",
		ArtURL:         "file:///tmp/cover.jpg",
		TrackID:        "/org/mpd/Tracks/3",
		TrackNumber:    3,
		DiscNumber:     1,
		Genres:         []string{"Folk", "Rock"},
		ContentCreated: "1992-10-27",
		Status:         StatusPlaying,
		Position:       12_000_000,
		Length:         303_000_000,
		Shuffle:        true,
		LoopStatus:     LoopTrack,
	}
	if !reflect.DeepEqual(info, want) {
		t.Errorf("decodePlayerInfo = %+v, want %+v", info, want)
	}
}

func TestDecodePlayerInfoNilCases(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(map[string]dbus.Variant)
	}{
		{"missing status", func(p map[string]dbus.Variant) { delete(p, "PlaybackStatus") }},
		{"non-string status", func(p map[string]dbus.Variant) { p["PlaybackStatus"] = dbus.MakeVariant(1) }},
		{"unknown status", func(p map[string]dbus.Variant) { p["PlaybackStatus"] = dbus.MakeVariant("Buffering") }},
		{"missing metadata", func(p map[string]dbus.Variant) { delete(p, "Metadata") }},
		{"empty metadata", func(p map[string]dbus.Variant) {
			p["Metadata"] = dbus.MakeVariant(map[string]dbus.Variant{})
		}},
		{"metadata wrong type", func(p map[string]dbus.Variant) { p["Metadata"] = dbus.MakeVariant("oops") }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			props := fullProps()
			tt.mutate(props)
			if info := decodePlayerInfo(props); info != nil {
				t.Errorf("decodePlayerInfo = %+v, want nil", info)
			}
		})
	}
}

func TestDecodePlayerInfoDegradesFieldwise(t *testing.T) {
	props := fullProps()
	meta, _ := props["Metadata"].Value().(map[string]dbus.Variant)
	meta["xesam:title"] = dbus.MakeVariant(42)
	meta["mpris:length"] = dbus.MakeVariant("three minutes")
	delete(meta, "mpris:trackid")
	delete(meta, "xesam:artist")

	info := decodePlayerInfo(props)
	if info == nil {
		t.Fatal("decodePlayerInfo returned nil, want degraded snapshot")
	}
	if info.Title != "" {
		t.Errorf("Title = %q, want empty for malformed value", info.Title)
	}
	if info.Length != 0 {
		t.Errorf("Length = %d, want 0 for malformed value", info.Length)
	}
	if info.TrackID != "/" {
		t.Errorf("TrackID = %q, want \"/\" default", info.TrackID)
	}
	if info.Artists != nil {
		t.Errorf("Artists = %v, want nil when absent", info.Artists)
	}
	if info.Album != "Harvest Moon" {
		t.Errorf("Album = %q, other fields must survive", info.Album)
	}
}

func TestDecodePlayerInfoCoercions(t *testing.T) {
	props := fullProps()
	meta, _ := props["Metadata"].Value().(map[string]dbus.Variant)
	// Some players send length as uint64 or int32 and artists as variants.
	meta["mpris:length"] = dbus.MakeVariant(uint64(200_000_000))
	meta["xesam:artist"] = dbus.MakeVariant([]interface{}{"A", "B"})
	props["Position"] = dbus.MakeVariant(int32(5))

	info := decodePlayerInfo(props)
	if info == nil {
		t.Fatal("decodePlayerInfo returned nil")
	}
	if info.Length != 200_000_000 {
		t.Errorf("Length = %d, want 200000000", info.Length)
	}
	if !reflect.DeepEqual(info.Artists, []string{"A", "B"}) {
		t.Errorf("Artists = %v, want [A B]", info.Artists)
	}
	if info.Position != 5 {
		t.Errorf("Position = %d, want 5", info.Position)
	}
}

func TestValidateBusName(t *testing.T) {
	tests := []struct {
		busName string
		wantErr bool
	}{
		{"org.mpris.MediaPlayer2.mpd", false},
		{"org.mpris.MediaPlayer2.chromium.instance_12_34", false},
		{"", true},
		{"org.mpris.MediaPlayer2", true},
		{"org.freedesktop.DBus", true},
		{"org.mpris.MediaPlayer2..evil", true},
		{"org.mpris.MediaPlayer2.a/b", true},
		{"org.mpris.MediaPlayer2.a\nb", true},
	}
	for _, tt := range tests {
		err := validateBusName(tt.busName)
		if (err != nil) != tt.wantErr {
			t.Errorf("validateBusName(%q) error = %v, wantErr %v", tt.busName, err, tt.wantErr)
		}
	}
}

func TestBaseAppName(t *testing.T) {
	tests := []struct {
		busName string
		want    string
	}{
		{"org.mpris.MediaPlayer2.mpd", "org.mpris.MediaPlayer2.mpd"},
		{"org.mpris.MediaPlayer2.chromium.instance_12_34", "org.mpris.MediaPlayer2.chromium"},
		{"org.mpris.MediaPlayer2.firefox.instance_1_999", "org.mpris.MediaPlayer2.firefox"},
		// Not the pid_serial shape: left alone.
		{"org.mpris.MediaPlayer2.app.instance_12", "org.mpris.MediaPlayer2.app.instance_12"},
		{"org.mpris.MediaPlayer2.app.instance_ab_cd", "org.mpris.MediaPlayer2.app.instance_ab_cd"},
		{"org.mpris.MediaPlayer2.app.instance__", "org.mpris.MediaPlayer2.app.instance__"},
	}
	for _, tt := range tests {
		if got := baseAppName(tt.busName); got != tt.want {
			t.Errorf("baseAppName(%q) = %q, want %q", tt.busName, got, tt.want)
		}
	}
}

func TestShortName(t *testing.T) {
	if got := shortName("org.mpris.MediaPlayer2.mpd"); got != "mpd" {
		t.Errorf("shortName = %q, want mpd", got)
	}
}
