package ingest

import (
	"strings"

	"github.com/DrSkyle/pierwatch/pkg/config"
	"golang.org/x/text/unicode/norm"
)

// headerReplacer folds spellings the log uses interchangeably: "ё" is
// written as "е", and a Latin "c" typed on the wrong layout is Cyrillic "с".
var headerReplacer = strings.NewReplacer("ё", "е", "c", "с")

// NormalizeHeader brings a header cell to its comparable form.
func NormalizeHeader(h string) string {
	h = norm.NFC.String(h)
	h = strings.TrimPrefix(h, "\ufeff")
	h = strings.ToLower(h)
	h = headerReplacer.Replace(h)
	return strings.TrimSpace(h)
}

// Field names used in issues and column maps.
const (
	FieldVessel      = "vessel"
	FieldArrival     = "arrival"
	FieldShipment    = "shipment"
	FieldCarrier     = "carrier"
	FieldTruckPlate  = "truck_plate"
	FieldWaybill     = "waybill"
	FieldClient      = "client"
	FieldCertificate = "certificate"
	FieldGross       = "gross"
)

// columnOrder fixes the matching order so results never depend on map iteration.
var columnOrder = []string{
	FieldVessel, FieldArrival, FieldShipment, FieldCarrier, FieldTruckPlate,
	FieldWaybill, FieldClient, FieldCertificate, FieldGross,
}

func wanted(c config.ColumnConfig) map[string]string {
	return map[string]string{
		FieldVessel:      c.Vessel,
		FieldArrival:     c.Arrival,
		FieldShipment:    c.Shipment,
		FieldCarrier:     c.Carrier,
		FieldTruckPlate:  c.TruckPlate,
		FieldWaybill:     c.Waybill,
		FieldClient:      c.Client,
		FieldCertificate: c.Certificate,
		FieldGross:       c.Gross,
	}
}

// MatchColumns maps each field to a header index. A header matches when it
// equals the configured name; failing that, the first header containing
// the name wins. Fields with no match are left out of the map.
func MatchColumns(headers []string, cols config.ColumnConfig) map[string]int {
	normalized := make([]string, len(headers))
	for i, h := range headers {
		normalized[i] = NormalizeHeader(h)
	}

	names := wanted(cols)
	out := make(map[string]int, len(names))
	for _, field := range columnOrder {
		name := NormalizeHeader(names[field])
		if name == "" {
			continue
		}
		if idx := indexOf(normalized, func(h string) bool { return h == name }); idx >= 0 {
			out[field] = idx
			continue
		}
		if idx := indexOf(normalized, func(h string) bool { return strings.Contains(h, name) }); idx >= 0 {
			out[field] = idx
		}
	}
	return out
}

func indexOf(hs []string, pred func(string) bool) int {
	for i, h := range hs {
		if pred(h) {
			return i
		}
	}
	return -1
}
