package model

import "fmt"

// The storage layer persists the enums as their String() forms; these
// parsers are the inverse mappings.

// ParseSeriesFormat parses "bo1"/"bo3"/"bo5".
func ParseSeriesFormat(s string) (SeriesFormat, error) {
	switch s {
	case "bo1":
		return FormatBo1, nil
	case "bo3":
		return FormatBo3, nil
	case "bo5":
		return FormatBo5, nil
	}
	return FormatUnknown, fmt.Errorf("unknown series format %q", s)
}

// ParseVenue parses "online"/"lan".
func ParseVenue(s string) (Venue, error) {
	switch s {
	case "online":
		return VenueOnline, nil
	case "lan":
		return VenueLAN, nil
	}
	return VenueLAN, fmt.Errorf("unknown venue %q", s)
}

// ParseWinCondition parses a round win condition.
func ParseWinCondition(s string) (WinCondition, error) {
	switch s {
	case "elimination":
		return WinElimination, nil
	case "defuse":
		return WinDefuse, nil
	case "detonation":
		return WinDetonation, nil
	case "timeout":
		return WinTimeout, nil
	}
	return WinUnknown, fmt.Errorf("unknown win condition %q", s)
}

// ParseBuyType parses a spend band; the empty string is the no-economy
// marker.
func ParseBuyType(s string) (BuyType, error) {
	switch s {
	case "":
		return BuyNone, nil
	case "eco":
		return BuyEco, nil
	case "semi_eco":
		return BuySemiEco, nil
	case "semi_buy":
		return BuySemiBuy, nil
	case "full_buy":
		return BuyFullBuy, nil
	}
	return BuyNone, fmt.Errorf("unknown buy type %q", s)
}
