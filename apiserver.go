// Copyright 2023 Tomas Machalek <tomas.machalek@gmail.com>
// Copyright 2023 Martin Zimandl <martin.zimandl@gmail.com>
// Copyright 2023 Institute of the Czech National Corpus,
//                Faculty of Arts, Charles University
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"
	"udsearch/cnf"
	corpusActions "udsearch/corpus/handlers"
	"udsearch/monitoring"
	monitoringActions "udsearch/monitoring/handlers"
	"udsearch/openapi"
	"udsearch/rdb"

	"github.com/czcorpus/cnc-gokit/logging"
	"github.com/czcorpus/cnc-gokit/uniresp"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

type serverInfo struct {
	Name    string      `json:"name"`
	Version versionInfo `json:"version"`
	Backend string      `json:"backend"`
	Pattern []string    `json:"defaultPattern"`
}

type apiServer struct {
	server   *http.Server
	conf     *cnf.Conf
	version  versionInfo
	radapter *rdb.Adapter
	monitor  *monitoring.JobMonitor
}

func (api *apiServer) mkServerInfo() gin.HandlerFunc {
	var backend string
	if api.conf.Analyzer != nil {
		backend = api.conf.Analyzer.Backend
	}
	return func(ctx *gin.Context) {
		uniresp.WriteJSONResponse(
			ctx.Writer,
			serverInfo{
				Name:    "UDSearch",
				Version: api.version,
				Backend: backend,
				Pattern: api.conf.Pattern,
			},
		)
	}
}

func (api *apiServer) Start(ctx context.Context) {
	if !api.conf.IsDebugMode() {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(additionalLogEvents())
	engine.Use(logging.GinMiddleware())
	engine.Use(uniresp.AlwaysJSONContentType())
	engine.Use(CORSMiddleware(api.conf))
	engine.NoMethod(uniresp.NoMethodHandler)
	engine.NoRoute(uniresp.NotFoundHandler)

	protected := engine.Group("/").Use(AuthRequired(api.conf))

	ceActions := corpusActions.NewActions(
		api.conf.CorpusDir,
		api.conf.Analyzer.Backend,
		api.conf.Pattern,
		api.radapter,
		time.Duration(api.conf.Redis.QueryAnswerTimeoutSecs)*time.Second,
	)

	engine.GET("/", api.mkServerInfo())

	engine.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// also serve the JSON variant of the docs with the public URL
	// matching the request
	engine.GET(
		"/openapi", openapi.MkHandleRequest(api.conf, api.version.Version))

	engine.GET(
		"/dataset/validate", ceActions.DatasetValidate)

	engine.GET(
		"/articles", ceActions.Articles)

	protected.POST(
		"/articles/:articleId/annotate", ceActions.AnnotateArticle)

	engine.GET(
		"/articles/:articleId/patterns", ceActions.PatternSearch)

	monActions := monitoringActions.NewActions(api.monitor)

	engine.GET(
		"/monitoring/workers-load", monActions.WorkersLoad)

	engine.GET(
		"/monitoring/workers-load/:workerId", monActions.SingleWorkerLoad)

	engine.GET(
		"/monitoring/recent-records", monActions.RecentRecords)

	engine.GET(
		"/monitoring/funcs", monActions.FuncStats)

	engine.GET(
		"/monitoring/articles/failing", monActions.FailingArticles)

	engine.GET(
		"/monitoring/articles/:articleId", monActions.ArticleStatus)

	log.Info().Msgf("starting to listen at %s:%d", api.conf.ListenAddress, api.conf.ListenPort)
	api.server = &http.Server{
		Handler:      engine,
		Addr:         fmt.Sprintf("%s:%d", api.conf.ListenAddress, api.conf.ListenPort),
		WriteTimeout: time.Duration(api.conf.ServerWriteTimeoutSecs) * time.Second,
		ReadTimeout:  time.Duration(api.conf.ServerReadTimeoutSecs) * time.Second,
	}
	go func() {
		if err := api.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()
}

func (api *apiServer) Stop(ctx context.Context) error {
	log.Warn().Msg("shutting down UDSearch HTTP API server")
	return api.server.Shutdown(ctx)
}

func runApiServer(conf *cnf.Conf, version versionInfo) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cnf.ValidateAnalyzer(conf); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
		return
	}
	if err := cnf.ValidateRedis(conf); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
		return
	}
	if err := openapi.RegisterDocs(conf, version.Version); err != nil {
		log.Fatal().Err(err).Msg("failed to initialize API docs")
		return
	}
	radapter := rdb.NewAdapter(conf.Redis, ctx)
	if err := radapter.TestConnection(redisConnectionTestTimeout); err != nil {
		log.Fatal().Err(err).Msg("failed to connect to Redis")
		return
	}

	var statusWriter monitoring.StatusWriter
	services := []service{}
	if conf.TimescaleDB != nil {
		tsWriter, err := monitoring.NewTimescaleDBWriter(ctx, *conf.TimescaleDB, conf.TimezoneLocation())
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize TimescaleDB writer")
			return
		}
		statusWriter = tsWriter
		services = append(services, tsWriter)

	} else {
		log.Warn().Msg("TimescaleDB not configured, worker load will not be persisted")
	}
	monitor := monitoring.NewJobMonitor(statusWriter, conf.TimezoneLocation())
	collector := monitoring.NewJobLogCollector(radapter, monitor)
	server := newAPIServer(conf, version, radapter, monitor)

	services = append(services, monitor, collector, server)
	for _, m := range services {
		m.Start(ctx)
	}
	<-ctx.Done()
	log.Warn().Msg("shutdown signal received")
	stopServices(services)
}

func newAPIServer(
	conf *cnf.Conf,
	version versionInfo,
	radapter *rdb.Adapter,
	monitor *monitoring.JobMonitor,
) *apiServer {
	return &apiServer{
		conf:     conf,
		version:  version,
		radapter: radapter,
		monitor:  monitor,
	}
}
