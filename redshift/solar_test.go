package redshift

import (
	"testing"
	"time"
)

func TestTemperatureAt(t *testing.T) {
	dawn := time.Date(2026, 3, 14, 6, 0, 0, 0, time.UTC)
	sun := Sun{
		Dawn:    dawn,
		Sunrise: dawn.Add(time.Hour),
		Sunset:  dawn.Add(13 * time.Hour),
		Dusk:    dawn.Add(14 * time.Hour),
	}
	for _, tc := range []struct {
		name string
		now  time.Time
		want int
	}{
		{"night before dawn", dawn.Add(-time.Hour), 4000},
		{"at dawn", dawn, 4000},
		{"mid morning twilight", dawn.Add(30 * time.Minute), 5250},
		{"at sunrise", dawn.Add(time.Hour), 6500},
		{"midday", dawn.Add(7 * time.Hour), 6500},
		{"at sunset", sun.Sunset, 6500},
		{"mid evening twilight", sun.Sunset.Add(30 * time.Minute), 5250},
		{"at dusk", sun.Dusk, 4000},
		{"night after dusk", sun.Dusk.Add(time.Hour), 4000},
	} {
		if got := TemperatureAt(tc.now, sun, NightTemperature, DayTemperature); got != tc.want {
			t.Errorf("%s: got %dK, want %dK", tc.name, got, tc.want)
		}
	}
}

func TestTemperatureAtDegenerateWindow(t *testing.T) {
	now := time.Date(2026, 3, 14, 6, 0, 0, 0, time.UTC)
	if got := interpolateTemperature(now, now, now, 4000, 6500); got != 6500 {
		t.Errorf("degenerate window: got %dK, want the stop temperature 6500K", got)
	}
	sun := Sun{Dawn: now, Sunrise: now, Sunset: now.Add(12 * time.Hour), Dusk: now.Add(13 * time.Hour)}
	if got := TemperatureAt(now, sun, NightTemperature, DayTemperature); got != DayTemperature {
		t.Errorf("dawn == sunrise: got %dK, want %dK", got, DayTemperature)
	}
}

func TestCalculateSunOrdering(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	sun, err := CalculateSun(now, 52, 4)
	if err != nil {
		t.Fatal(err)
	}
	if sun.Dawn.After(sun.Sunrise) || sun.Sunrise.After(sun.Sunset) || sun.Sunset.After(sun.Dusk) {
		t.Errorf("phases out of order: dawn %v, sunrise %v, sunset %v, dusk %v", sun.Dawn, sun.Sunrise, sun.Sunset, sun.Dusk)
	}
	if !sun.Equal(sun) {
		t.Error("sun does not equal itself")
	}
}

func TestCalculateSunInvalidLocation(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	if _, err := CalculateSun(now, 95, 4); err == nil {
		t.Error("expected error for latitude 95")
	}
	if _, err := CalculateSun(now, 52, 190); err == nil {
		t.Error("expected error for longitude 190")
	}
}

func TestEveningTwilightRampsDown(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	sun, err := CalculateSun(now, 52, 4)
	if err != nil {
		t.Fatal(err)
	}
	quarter := sun.Dusk.Sub(sun.Sunset) / 4
	early := TemperatureAt(sun.Sunset.Add(quarter), sun, NightTemperature, DayTemperature)
	late := TemperatureAt(sun.Sunset.Add(3*quarter), sun, NightTemperature, DayTemperature)
	if early <= NightTemperature || early >= DayTemperature {
		t.Errorf("early twilight temperature %dK not strictly between %dK and %dK", early, NightTemperature, DayTemperature)
	}
	if late >= early {
		t.Errorf("temperature did not decrease toward dusk: %dK then %dK", early, late)
	}
}
