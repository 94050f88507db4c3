package loaders

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// wormbaseClient wird für den Download der xrefs-Files verwendet. Der kurze
// Timeout ist Absicht: ein hängender Fetch soll den Befehl abbrechen, nicht
// blockieren.
var wormbaseClient = &http.Client{Timeout: 5 * time.Second}

// WormBasePair verknüpft einen systematischen C.-elegans-Gennamen mit
// seiner WormBase-ID.
type WormBasePair struct {
	SystematicName string
	WBID           string
}

// WormBaseFetcher lädt das gzippte xrefs-File einer WormBase-Release.
type WormBaseFetcher struct {
	Logger *zap.Logger
}

// NewWormBaseFetcher erstellt eine neue Instanz des WormBase-Fetchers.
func NewWormBaseFetcher(logger *zap.Logger) *WormBaseFetcher {
	return &WormBaseFetcher{Logger: logger}
}

// FetchXRefs lädt das xrefs-File von der angegebenen URL, entpackt es und
// liefert die (systematischer Name, WormBase-ID)-Paare. Ein fehlgeschlagener
// Fetch ist fatal für den Aufrufer; es gibt keine Retries.
func (f *WormBaseFetcher) FetchXRefs(url string) ([]WormBasePair, error) {
	resp, err := wormbaseClient.Get(url)
	if err != nil {
		return nil, fmt.Errorf("fetch wormbase xrefs: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch wormbase xrefs: unexpected status %s", resp.Status)
	}

	gz, err := gzip.NewReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("open gzip reader: %w", err)
	}
	defer gz.Close()

	var pairs []WormBasePair
	scanner := bufio.NewScanner(gz)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		toks := strings.Split(line, "\t")
		if len(toks) < 2 {
			f.Logger.Warn("Überspringe unvollständige WormBase-Zeile", zap.String("line", line))
			continue
		}
		pairs = append(pairs, WormBasePair{
			// WormBase führt Gene ohne das CELE_-Präfix, die gene_info-Daten
			// von NCBI mit. Für den Abgleich wird es hier ergänzt.
			SystematicName: "CELE_" + toks[0],
			WBID:           toks[1],
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read wormbase xrefs: %w", err)
	}
	return pairs, nil
}
