package domain

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// missingToken is the null value written for missing levels. Its N flag makes
// it parse back as missing.
const missingToken = "-99.0000N"

// FormatStationRecords writes records in the station file layout read by
// ParseStationRecords: the metadata block, the column and unit header rows,
// then one numbered row per record.
func FormatStationRecords(w io.Writer, info StationInfo, records []TideRecord) error {
	bw := bufio.NewWriter(w)

	lat, lon := "", ""
	if info.HasCoords {
		lat = strconv.FormatFloat(info.Latitude, 'f', 5, 64)
		lon = strconv.FormatFloat(info.Longitude, 'f', 5, 64)
	}
	meta := [][2]string{
		{"Port", info.Port},
		{"Site", info.Site},
		{"Latitude", lat},
		{"Longitude", lon},
		{"Start Date", headerDate(info.StartDate)},
		{"End Date", headerDate(info.EndDate)},
		{"Contributor", info.Contributor},
		{"Datum information", info.Datum},
		{"Parameter code", info.Parameter},
	}
	for _, kv := range meta {
		fmt.Fprintf(bw, "%-19s%s\n", kv[0]+":", kv[1])
	}
	fmt.Fprintln(bw, "  Cycle    Date      Time    ASLVTD02   Residual")
	fmt.Fprintln(bw, " Number yyyy mm dd hh mi ssf   f          f")

	for i, r := range records {
		fmt.Fprintf(bw, "%6d) %s %11s %11s\n",
			i+1, r.Time.UTC().Format("2006/01/02 15:04:05"), levelToken(r.SeaLevel), levelToken(r.Residual))
	}
	return bw.Flush()
}

func levelToken(l Level) string {
	if !l.Valid {
		return missingToken
	}
	return strconv.FormatFloat(l.Meters, 'f', 4, 64)
}

func headerDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return strings.ToUpper(t.Format(headerDateLayout))
}
