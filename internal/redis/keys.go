package redisx

import "fmt"

const ns = "airways:v1"

func KeyFlightAvailability(flightID int64) string {
	return fmt.Sprintf("%s:flight:%d:availability", ns, flightID)
}

func KeyFlightSeatMap(flightID int64, class string) string {
	return fmt.Sprintf("%s:flight:%d:seatmap:%s", ns, flightID, class)
}

func ChannelFlightsChanged() string {
	return ns + ":flights:changed"
}
