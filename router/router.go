package router

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/http"
	"strings"
	"time"

	"github.com/golang/glog"
	"github.com/julienschmidt/httprouter"
	"github.com/rs/cors"

	"github.com/brittanyzellman/prebid-tlx/adapters"
	"github.com/brittanyzellman/prebid-tlx/adapters/triplelift"
	"github.com/brittanyzellman/prebid-tlx/config"
	"github.com/brittanyzellman/prebid-tlx/endpoints"
	"github.com/brittanyzellman/prebid-tlx/logger"
	metricsconfig "github.com/brittanyzellman/prebid-tlx/metrics/config"
	"github.com/brittanyzellman/prebid-tlx/openrtb_ext"
	"github.com/brittanyzellman/prebid-tlx/util/timeutil"
	"github.com/brittanyzellman/prebid-tlx/util/uuidutil"
)

// NewJsonDirectoryServer is used to serve .json files from a directory as a single blob. For example,
// given a directory containing the files "a.json" and "b.json", this returns a Handle which serves JSON like:
//
// {
//   "a": { ... content from the file a.json ... },
//   "b": { ... content from the file b.json ... }
// }
//
// This function stores the file contents in memory, and should not be used on large directories.
func NewJsonDirectoryServer(schemaDirectory string, validator openrtb_ext.BidderParamValidator) (httprouter.Handle, error) {
	// Slurp the files into memory first, since they're small and it minimizes request latency.
	files, err := ioutil.ReadDir(schemaDirectory)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %v", schemaDirectory, err)
	}

	data := make(map[string]json.RawMessage, len(files))
	for _, file := range files {
		bidder := strings.TrimSuffix(file.Name(), ".json")
		bidderName, isValid := openrtb_ext.GetBidderName(bidder)
		if !isValid {
			return nil, fmt.Errorf("schema exists for an unknown bidder: %s", bidder)
		}
		data[bidder] = json.RawMessage(validator.Schema(bidderName))
	}

	response, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal bidder param JSON-schema: %v", err)
	}

	return func(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
		w.Header().Add("Content-Type", "application/json")
		w.Write(response)
	}, nil
}

type NoCache struct {
	Handler http.Handler
}

func (m NoCache) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Add("Cache-Control", "no-cache, no-store, must-revalidate")
	w.Header().Add("Pragma", "no-cache")
	w.Header().Add("Expires", "0")
	m.Handler.ServeHTTP(w, r)
}

type Router struct {
	*httprouter.Router
	MetricsEngine   *metricsconfig.DetailedMetricsEngine
	ParamsValidator openrtb_ext.BidderParamValidator
}

// New wires the triplelift adapter into the public endpoints.
func New(cfg *config.Configuration) (*Router, error) {
	r := &Router{
		Router: httprouter.New(),
	}

	r.MetricsEngine = metricsconfig.NewMetricsEngine(cfg, []openrtb_ext.BidderName{openrtb_ext.BidderTriplelift})

	var err error
	r.ParamsValidator, err = openrtb_ext.NewBidderParamsValidator(cfg.BidderParamsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create the bidder params validator: %v", err)
	}

	adapterCfg := cfg.Adapters[string(openrtb_ext.BidderTriplelift)]
	if adapterCfg.Disabled {
		return nil, fmt.Errorf("adapters.%s is disabled, nothing to serve", openrtb_ext.BidderTriplelift)
	}
	bidder, err := triplelift.Builder(adapterCfg, triplelift.Environment{})
	if err != nil {
		return nil, err
	}

	client := adapters.NewHTTPClient(adapters.HTTPClientConfig{
		IdleConnTimeout: time.Duration(cfg.Client.IdleConnTimeout) * time.Second,
		MaxConns:        cfg.Client.MaxIdleConns,
		MaxConnsPerHost: cfg.Client.MaxConnsPerHost,
	})
	adapted := adapters.AdaptBidder(bidder, client, openrtb_ext.BidderTriplelift, r.MetricsEngine, timeutil.RealTime{}, logger.Default())

	paramsServer, err := NewJsonDirectoryServer(cfg.BidderParamsDir, r.ParamsValidator)
	if err != nil {
		return nil, err
	}

	r.POST("/auction", endpoints.Auction(cfg, adapted, openrtb_ext.BidderTriplelift, r.ParamsValidator, r.MetricsEngine, uuidutil.UUIDRandomGenerator{}))
	r.POST("/debug/tags", endpoints.NewDebugTagsEndpoint(bidder, r.MetricsEngine))
	r.GET("/bidders/params", paramsServer)
	r.GET("/status", endpoints.NewStatusEndpoint(cfg.StatusResponse))

	return r, nil
}

// Admin serves the build version and, when enabled, the go-metrics registry as JSON.
func Admin(version, revision string, me *metricsconfig.DetailedMetricsEngine) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/version", endpoints.NewVersionEndpoint(version, revision))
	if me != nil && me.GoMetrics != nil {
		registry := me.GoMetrics.MetricsRegistry
		mux.HandleFunc("/metrics", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Add("Content-Type", "application/json")
			// PrefixedRegistry has no MarshalJSON of its own.
			if err := json.NewEncoder(w).Encode(registry.GetAll()); err != nil {
				glog.Errorf("Failed to write go-metrics JSON: %v", err)
			}
		})
	}
	return mux
}

// These CORS options accept calls from every origin, with credentials. Browsers call the
// auction straight from publisher pages.
func SupportCORS(handler http.Handler) http.Handler {
	c := cors.New(cors.Options{
		AllowCredentials: true,
		AllowOriginFunc: func(string) bool {
			return true
		},
		AllowedHeaders: []string{"Origin", "X-Requested-With", "Content-Type", "Accept"}})
	return c.Handler(handler)
}
