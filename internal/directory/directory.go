package directory

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"rugguard/internal/logging"
	"rugguard/internal/util"
	"rugguard/internal/xclient"
)

// Directory is the immutable allow-list of trusted handles, loaded once at
// startup. Membership checks are case-insensitive.
type Directory struct {
	handles []string
	set     map[string]struct{}
	ids     map[string]struct{}
}

// DefaultHandles is the built-in fallback list used when the remote fetch
// fails.
var DefaultHandles = []string{
	"JupiterExchange", "RaydiumProtocol", "orca_so", "KaminoFinance", "MeteoraAG",
	"saros_xyz", "DriftProtocol", "solendprotocol", "MarinadeFinance", "jito_labs",
	"MadLads", "MagicEden", "Lifinity_io", "SolanaMBS", "DegenApeAcademy",
	"okaybears", "famousfoxfed", "CetsOnCreck", "xNFT_Backpack", "tensor_hq",
	"wormholecrypto", "helium", "PythNetwork", "solana", "solanalabs",
	"phantom", "solflare_wallet", "solanaexplorer", "solanabeach_io", "solanafm",
	"solanium_io", "staratlas", "grapeprotocol", "mangomarkets", "bonfida",
	"medianetwork_", "Saber_HQ", "StepFinance_", "tulipprotocol", "SunnyAggregator",
	"aeyakovenko", "rajgokal", "VinnyLingham", "TonyGuoga", "Austin_Federa",
	"Wordcel_xyz", "TrutsXYZ", "StellarSoulNFT", "superteam_xyz", "Bunkr_io",
	"candypay_xyz", "solanabridge", "solana_tourism", "MemeDaoSOL", "superteamIND",
	"superteamVN", "superteamDE", "superteamUK", "superteamUAE", "superteamNG",
	"superteamBalkan", "superteamMY", "superteamFR", "superteamJP", "superteamSG",
	"superteamCA", "superteamTR", "superteamTH", "superteamPH", "superteamMX",
	"superteamBR",
}

// New builds a directory from an explicit handle list.
func New(handles []string) *Directory {
	d := &Directory{handles: handles, set: make(map[string]struct{}, len(handles)), ids: map[string]struct{}{}}
	for _, h := range handles {
		d.set[strings.ToLower(strings.TrimSpace(h))] = struct{}{}
	}
	return d
}

// Load fetches the trusted handle list from url with a bounded timeout. On
// any failure it falls back to DefaultHandles; it never returns an unusable
// directory.
func Load(ctx context.Context, url string, timeout time.Duration) *Directory {
	handles, err := fetch(ctx, url, timeout)
	if err != nil || len(handles) == 0 {
		fields := map[string]any{"url": url, "fallback": len(DefaultHandles)}
		if err != nil {
			fields["error"] = err.Error()
		}
		logging.Warn("directory_fallback", fields)
		return New(DefaultHandles)
	}
	logging.Info("directory_loaded", map[string]any{"url": url, "handles": len(handles)})
	return New(handles)
}

func fetch(ctx context.Context, url string, timeout time.Duration) ([]string, error) {
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &statusError{code: resp.StatusCode}
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	return util.NonEmptyLines(string(body)), nil
}

type statusError struct{ code int }

func (e *statusError) Error() string { return fmt.Sprintf("directory status %d", e.code) }

// Handles returns the loaded handle list in order.
func (d *Directory) Handles() []string { return d.handles }

// Len returns the number of trusted handles.
func (d *Directory) Len() int { return len(d.handles) }

// Contains reports whether handle is on the trusted list, ignoring case.
func (d *Directory) Contains(handle string) bool {
	_, ok := d.set[strings.ToLower(strings.TrimSpace(handle))]
	return ok
}

// ResolveIDs resolves trusted handles to user ids in batched lookups and
// caches them for probing. Handles that fail to resolve (suspended, renamed,
// nonexistent) are skipped. Returns the number of resolved ids.
func (d *Directory) ResolveIDs(ctx context.Context, client xclient.Client) int {
	for i := 0; i < len(d.handles); i += 100 {
		end := i + 100
		if end > len(d.handles) {
			end = len(d.handles)
		}
		users, err := client.GetUsersByUsernames(ctx, d.handles[i:end])
		if err != nil {
			logging.Warn("directory_resolve_error", map[string]any{"error": err.Error()})
			continue
		}
		for _, u := range users {
			if u.ID != "" {
				d.ids[u.ID] = struct{}{}
			}
		}
	}
	return len(d.ids)
}

// ContainsID reports whether a resolved trusted account id matches id.
func (d *Directory) ContainsID(id string) bool {
	_, ok := d.ids[id]
	return ok
}

// ResolvedIDs returns the number of cached trusted ids.
func (d *Directory) ResolvedIDs() int { return len(d.ids) }
