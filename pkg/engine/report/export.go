package report

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"
	"strings"

	"github.com/DrSkyle/pierwatch/pkg/engine/fifo"
	"github.com/DrSkyle/pierwatch/pkg/engine/policy"
)

var csvHeader = []string{
	"client",
	"earlier_arrival_certificate",
	"earlier_arrival_date",
	"earlier_shipment_date",
	"later_arrival_certificate",
	"later_arrival_date",
	"later_shipment_date",
	"shipment_day_gap",
	"rules",
}

// WriteCSV writes one row per violation. The rules column lists the ids of
// matched rules separated by ";".
func WriteCSV(w io.Writer, violations []fifo.Violation, findings []policy.Finding) error {
	rules := make(map[int][]string)
	for _, f := range findings {
		rules[f.ViolationIndex] = append(rules[f.ViolationIndex], f.RuleID)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for i, v := range violations {
		record := []string{
			v.Client,
			v.EarlierArrivalCertificate,
			v.EarlierArrivalDate.String(),
			v.EarlierShipmentDate.String(),
			v.LaterArrivalCertificate,
			v.LaterArrivalDate.String(),
			v.LaterShipmentDate.String(),
			strconv.Itoa(v.ShipmentDayGap),
			strings.Join(rules[i], ";"),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteJSON writes doc as indented JSON.
func WriteJSON(w io.Writer, doc Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc.normalized())
}
