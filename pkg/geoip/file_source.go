package geoip

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"net/netip"
	"strings"

	"github.com/spf13/afero"

	"github.com/crastinus/hlfun-auth-srv/pkg/logging"
)

// Column layout of the GeoLite2 city CSV exports.
const (
	locGeonameIDCol = 0
	locCountryCol   = 5
)

// FileSource loads an Index from the two GeoLite2 reference tables:
// a locations table (location id -> country name) and a blocks table
// (IPv4 CIDR -> location id).
type FileSource struct {
	fs            afero.Fs
	locationsPath string
	blocksPath    string
}

// NewFileSource creates a FileSource reading from the given filesystem
func NewFileSource(fs afero.Fs, locationsPath, blocksPath string) *FileSource {
	return &FileSource{fs: fs, locationsPath: locationsPath, blocksPath: blocksPath}
}

// Load builds the index. Blocks whose location id has no country row, and
// location rows with an empty country name, are skipped.
func (s *FileSource) Load() (*Index, error) {
	countryByGeoname, err := s.loadLocations()
	if err != nil {
		return nil, err
	}

	prefixes, err := s.loadBlocks(countryByGeoname)
	if err != nil {
		return nil, err
	}

	index, err := NewIndex(prefixes)
	if err != nil {
		return nil, err
	}

	logging.App.Info("Built geo index", "countries", index.Len())
	return index, nil
}

// loadLocations parses the locations table with a full CSV reader:
// country names legitimately contain quoted commas.
func (s *FileSource) loadLocations() (map[string]string, error) {
	f, err := s.fs.Open(s.locationsPath)
	if err != nil {
		return nil, fmt.Errorf("opening locations file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(bufio.NewReaderSize(f, 256*1024))
	r.ReuseRecord = true

	// header
	if _, err := r.Read(); err != nil {
		return nil, fmt.Errorf("reading locations header: %w", err)
	}

	result := make(map[string]string, 1<<16)
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading locations file: %w", err)
		}
		if len(rec) <= locCountryCol {
			return nil, fmt.Errorf("locations row too short: %d columns", len(rec))
		}
		country := rec[locCountryCol]
		if country == "" {
			continue
		}
		result[rec[locGeonameIDCol]] = country
	}
	return result, nil
}

// loadBlocks parses the blocks table. Only the first two columns matter
// and neither is ever quoted, so a manual split avoids the CSV reader on
// the multi-million-row table.
func (s *FileSource) loadBlocks(countryByGeoname map[string]string) (map[string][]netip.Prefix, error) {
	f, err := s.fs.Open(s.blocksPath)
	if err != nil {
		return nil, fmt.Errorf("opening blocks file: %w", err)
	}
	defer f.Close()

	prefixes := make(map[string][]netip.Prefix, len(countryByGeoname)/64)

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 256*1024), 1024*1024)

	first := true
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		if first {
			first = false
			continue
		}
		line := scanner.Text()
		if line == "" {
			continue
		}

		cidr, rest, ok := strings.Cut(line, ",")
		if !ok {
			return nil, fmt.Errorf("blocks line %d: missing geoname id", lineNo)
		}
		geonameID, _, _ := strings.Cut(rest, ",")

		country, ok := countryByGeoname[geonameID]
		if !ok {
			continue
		}

		prefix, err := netip.ParsePrefix(cidr)
		if err != nil {
			return nil, fmt.Errorf("blocks line %d: %w", lineNo, err)
		}

		prefixes[country] = append(prefixes[country], prefix)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading blocks file: %w", err)
	}

	return prefixes, nil
}
