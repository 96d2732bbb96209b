package ingest

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/DrSkyle/pierwatch/pkg/cargo"
	"github.com/DrSkyle/pierwatch/pkg/config"
	"github.com/DrSkyle/pierwatch/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pierLog mimics the spreadsheet export: odd header spellings (Latin "c",
// "ё", extra spaces), a comma decimal, placeholders and a bad date.
const pierLog = `Судно,Дата принятия на пирс ,Дата отгрузки авто,Перевозчик,Номер авто,ТН,Клиент,№ Сертиф.,Брутто (т)
Волга (2),01.01.2024,10.01.2024,ТрансЛог,А123ВС,77,Альфа,C-1,"20,5"
Волга (2),05.01.2024,08.01.2024,ТрансЛог,А124ВС,78,Альфа,C-2,19
Ока,05.01.2024,nan,,,,Бета,C-3,nan
,,,,,,Бета,C-4,12
Ока,2024-01-07,32.01.2024,,,,Гамма,C-5,много
,,,,,,,,
`

func TestNormalizeHeader(t *testing.T) {
	assert.Equal(t, "дата принятия на пирс", NormalizeHeader(" Дата принятия на пирс "))
	// Latin "C" typed instead of Cyrillic "С".
	assert.Equal(t, "№ \u0441ертиф.", NormalizeHeader("№ Cертиф."))
	assert.Equal(t, "сче\u0442", NormalizeHeader("Сч\u0451т"))
	// "ё" written as "е" + combining diaeresis.
	assert.Equal(t, "счет", NormalizeHeader("Сче\u0308т"))
	assert.Equal(t, "клиент", NormalizeHeader("\ufeffКлиент"))
}

func TestMatchColumns(t *testing.T) {
	headers := []string{"Судно", "Брутто (т)", "Клиент", "Клиент"}
	cols := MatchColumns(headers, config.DefaultColumnConfig())

	assert.Equal(t, 0, cols[FieldVessel])
	assert.Equal(t, 1, cols[FieldGross], "substring match")
	assert.Equal(t, 2, cols[FieldClient], "first exact match wins")
	_, ok := cols[FieldArrival]
	assert.False(t, ok)
}

func TestMatchColumns_ExactBeatsSubstring(t *testing.T) {
	headers := []string{"Клиент (старый)", "Клиент"}
	cols := MatchColumns(headers, config.DefaultColumnConfig())
	assert.Equal(t, 1, cols[FieldClient])
}

func TestRead(t *testing.T) {
	ds, err := Read(context.Background(), strings.NewReader(pierLog), config.DefaultAnalysisConfig().Ingest)
	require.NoError(t, err)

	assert.Empty(t, ds.MissingColumns)
	assert.Equal(t, 1, ds.BlankRows)
	require.Len(t, ds.Records, 5)

	first := ds.Records[0]
	assert.Equal(t, 1, first.Row)
	assert.Equal(t, "Волга (2)", first.Vessel)
	assert.Equal(t, "Альфа", first.Client)
	assert.Equal(t, "C-1", first.Certificate)
	assert.Equal(t, "77", first.Waybill)
	assert.True(t, first.Arrival.Equal(cargo.NewDate(2024, time.January, 1)))
	assert.True(t, first.Shipment.Equal(cargo.NewDate(2024, time.January, 10)))
	assert.Equal(t, cargo.Tonnes(20.5), first.Gross)

	onPier := ds.Records[2]
	assert.True(t, onPier.OnPier())
	assert.False(t, onPier.Gross.Valid)
	assert.Equal(t, "", onPier.Carrier)

	assert.True(t, ds.Records[3].InTransit())

	fallback := ds.Records[4]
	assert.True(t, fallback.Arrival.Equal(cargo.NewDate(2024, time.January, 7)), "ISO fallback layout")
	assert.False(t, fallback.Shipment.Valid(), "bad date reads as absent")
	assert.False(t, fallback.Gross.Valid)

	require.Len(t, ds.Issues, 2)
	assert.Equal(t, FieldShipment, ds.Issues[0].Field)
	assert.Equal(t, "32.01.2024", ds.Issues[0].Value)
	assert.Equal(t, 5, ds.Issues[0].Row)
	assert.Equal(t, FieldGross, ds.Issues[1].Field)
	assert.True(t, errors.Is(ds.Issues[0], ErrMalformedRecord))
}

func TestRead_MissingColumnIsAbsent(t *testing.T) {
	log := "Клиент,Дата принятия на пирс\nАльфа,01.01.2024\n"
	ds, err := Read(context.Background(), strings.NewReader(log), config.DefaultAnalysisConfig().Ingest)
	require.NoError(t, err)

	assert.Contains(t, ds.MissingColumns, FieldShipment)
	require.Len(t, ds.Records, 1)
	assert.False(t, ds.Records[0].Shipment.Valid())
	assert.Empty(t, ds.Issues)
}

func TestRead_UnusableClient(t *testing.T) {
	log := "Клиент,Дата принятия на пирс\n\"\x01\x02\",01.01.2024\nАльфа,01.01.2024\n"
	ds, err := Read(context.Background(), strings.NewReader(log), config.DefaultAnalysisConfig().Ingest)
	require.NoError(t, err)

	require.Len(t, ds.Records, 2)
	assert.Equal(t, "", ds.Records[0].Client)
	require.Len(t, ds.Issues, 1)
	assert.Equal(t, FieldClient, ds.Issues[0].Field)
}

func TestRead_Semicolon(t *testing.T) {
	cfg := config.DefaultAnalysisConfig().Ingest
	cfg.Comma = ";"
	log := "Клиент;Брутто\nАльфа;1,25\n"
	ds, err := Read(context.Background(), strings.NewReader(log), cfg)
	require.NoError(t, err)
	require.Len(t, ds.Records, 1)
	assert.Equal(t, cargo.Tonnes(1.25), ds.Records[0].Gross)
}

func TestRead_Empty(t *testing.T) {
	_, err := Read(context.Background(), strings.NewReader(""), config.DefaultAnalysisConfig().Ingest)
	assert.ErrorIs(t, err, ErrNoHeader)

	ds, err := Read(context.Background(), strings.NewReader("Клиент\n"), config.DefaultAnalysisConfig().Ingest)
	require.NoError(t, err)
	assert.Empty(t, ds.Records)
}

func TestCleaner_Tonnage(t *testing.T) {
	cl := newCleaner(nil, []string{"nan"})

	tests := []struct {
		raw  string
		want cargo.Tonnage
		ok   bool
	}{
		{"12,5", cargo.Tonnes(12.5), true},
		{" 1 200,75 ", cargo.Tonnes(1200.75), true},
		{"NaN", cargo.Tonnage{}, true},
		{"", cargo.Tonnage{}, true},
		{"inf", cargo.Tonnage{}, false},
		{"двадцать", cargo.Tonnage{}, false},
	}
	for _, tt := range tests {
		got, ok := cl.tonnage(tt.raw)
		assert.Equal(t, tt.ok, ok, tt.raw)
		assert.Equal(t, tt.want, got, tt.raw)
	}
}

func TestOpenSource(t *testing.T) {
	ctx := context.Background()

	src, err := OpenSource(ctx, "/tmp/log.csv", SourceOptions{})
	require.NoError(t, err)
	assert.IsType(t, FileSource{}, src)

	src, err = OpenSource(ctx, "file:///tmp/log.csv", SourceOptions{})
	require.NoError(t, err)
	assert.Equal(t, FileSource{Path: "/tmp/log.csv"}, src)

	src, err = OpenSource(ctx, "https://example.com/log.csv", SourceOptions{})
	require.NoError(t, err)
	assert.IsType(t, HTTPSource{}, src)

	store := storage.NewLocalStore(t.TempDir())
	src, err = OpenSource(ctx, "s3://pier/log.csv", SourceOptions{Store: store})
	require.NoError(t, err)
	assert.Equal(t, "s3://pier/log.csv", src.String())

	_, err = OpenSource(ctx, "ftp://example.com/log.csv", SourceOptions{})
	assert.ErrorIs(t, err, ErrUnsupportedSource)
	_, err = OpenSource(ctx, "", SourceOptions{})
	assert.ErrorIs(t, err, ErrUnsupportedSource)
}

func TestLoad_HTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/export" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/csv")
		_, _ = w.Write([]byte(pierLog))
	}))
	defer srv.Close()

	cfg := config.DefaultAnalysisConfig().Ingest
	ds, err := Load(context.Background(), HTTPSource{URL: srv.URL + "/export"}, cfg)
	require.NoError(t, err)
	assert.Len(t, ds.Records, 5)

	_, err = Load(context.Background(), HTTPSource{URL: srv.URL + "/missing"}, cfg)
	assert.ErrorContains(t, err, "status 404")
}

func TestLoad_FileAndBlob(t *testing.T) {
	ctx := context.Background()
	cfg := config.DefaultAnalysisConfig().Ingest
	dir := t.TempDir()

	path := filepath.Join(dir, "log.csv")
	require.NoError(t, os.WriteFile(path, []byte(pierLog), 0644))
	ds, err := Load(ctx, FileSource{Path: path}, cfg)
	require.NoError(t, err)
	assert.Len(t, ds.Records, 5)

	store := storage.NewLocalStore(dir)
	ds, err = Load(ctx, BlobSource{Store: store, Key: "log.csv"}, cfg)
	require.NoError(t, err)
	assert.Len(t, ds.Records, 5)

	_, err = Load(ctx, BlobSource{Store: store, Key: "other.csv"}, cfg)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
