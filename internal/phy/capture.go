package phy

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/loraflexsim/core/internal/simerrors"
)

// CaptureMatrix is the 6x6 table NON_ORTH_DELTA[sfSignal-7][sfInterferer-7],
// giving the minimum RSSI_signal - RSSI_interferer (dB) required for the
// signal to survive that interferer. Ported from the FLoRa C++ reference
// values carried by the Python source this engine was distilled from.
type CaptureMatrix [6][6]float64

// DefaultCaptureMatrix returns the FLoRa reference matrix.
func DefaultCaptureMatrix() CaptureMatrix {
	return CaptureMatrix{
		{1, -8, -9, -9, -9, -9},
		{-11, 1, -11, -12, -13, -13},
		{-15, -13, 1, -13, -14, -15},
		{-19, -18, -17, 1, -17, -18},
		{-22, -22, -21, -20, 1, -20},
		{-25, -25, -25, -24, -23, 1},
	}
}

// Captures reports whether sfSignal survives interference from sfInterferer
// given the observed RSSI gap, per the non-orthogonal capture rule:
// RSSI_signal - RSSI_interferer >= NON_ORTH_DELTA[SFs][SFi].
func (m CaptureMatrix) Captures(sfSignal, sfInterferer SF, rssiGapDB float64) bool {
	return rssiGapDB >= m[sfSignal-7][sfInterferer-7]
}

// LoadCaptureMatrix loads a capture matrix from a JSON file (a list of six
// lists of six numbers) or an INI-style file with a [NON_ORTH_DELTA]
// section whose keys are SF7..SF12, each a row of six comma/space separated
// numbers. Any row or parse failure falls back to DefaultCaptureMatrix, and
// path=="" always returns the default, mirroring the defensive fallback of
// the reference loader.
func LoadCaptureMatrix(path string) CaptureMatrix {
	def := DefaultCaptureMatrix()
	if path == "" {
		return def
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		if m, err := loadCaptureMatrixJSON(path); err == nil {
			return m
		}
	case ".ini", ".cfg":
		if m, err := loadCaptureMatrixINI(path); err == nil {
			return m
		}
	}
	return def
}

func loadCaptureMatrixJSON(path string) (CaptureMatrix, error) {
	var def CaptureMatrix
	data, err := os.ReadFile(path)
	if err != nil {
		return def, err
	}
	var rows [][]float64
	if err := json.Unmarshal(data, &rows); err != nil {
		return def, err
	}
	if len(rows) != 6 {
		return def, simerrors.ConfigErrorf("capture matrix JSON must contain 6 rows, got %d", len(rows))
	}
	var m CaptureMatrix
	for i, row := range rows {
		if len(row) != 6 {
			return def, simerrors.ConfigErrorf("capture matrix row %d must contain 6 values, got %d", i, len(row))
		}
		copy(m[i][:], row)
	}
	return m, nil
}

func loadCaptureMatrixINI(path string) (CaptureMatrix, error) {
	m := DefaultCaptureMatrix()
	f, err := os.Open(path)
	if err != nil {
		return m, err
	}
	defer f.Close()

	inSection := false
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, ";") || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "[") {
			inSection = strings.EqualFold(line, "[NON_ORTH_DELTA]")
			continue
		}
		if !inSection {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		sf, err := parseSFKey(key)
		if err != nil {
			continue
		}
		fields := strings.FieldsFunc(value, func(r rune) bool { return r == ',' || r == ' ' || r == '\t' })
		if len(fields) != 6 {
			return DefaultCaptureMatrix(), simerrors.ConfigErrorf("capture matrix row %s must contain 6 values", key)
		}
		var row [6]float64
		for i, field := range fields {
			v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
			if err != nil {
				return DefaultCaptureMatrix(), err
			}
			row[i] = v
		}
		m[sf-7] = row
	}
	if err := scanner.Err(); err != nil {
		return DefaultCaptureMatrix(), err
	}
	return m, nil
}

func parseSFKey(key string) (SF, error) {
	key = strings.ToUpper(strings.TrimSpace(key))
	if !strings.HasPrefix(key, "SF") {
		return 0, simerrors.ConfigErrorf("invalid capture matrix key %q", key)
	}
	n, err := strconv.Atoi(strings.TrimPrefix(key, "SF"))
	if err != nil || n < 7 || n > 12 {
		return 0, simerrors.ConfigErrorf("invalid capture matrix key %q", key)
	}
	return SF(n), nil
}

// CaptureWindowStart computes csBegin = start + Ts*(preambleSymbols-6), the
// instant before which an interferer's overlap cannot defeat the signal
// regardless of power, per the engine's fixed 6-symbol capture window.
func CaptureWindowStart(start Time, sf SF, bwHz float64, preambleSymbols int) Time {
	if preambleSymbols <= 0 {
		preambleSymbols = defaultPreambleSymbols
	}
	ts := SymbolDuration(sf, bwHz)
	return start + FromSeconds(ts*float64(preambleSymbols-6))
}
