package main

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"genes-api/config"
	"genes-api/loaders"
	"genes-api/models"
	"genes-api/services"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	searchRequestsCounter    prometheus.Counter
	translateRequestsCounter prometheus.Counter
	wormbaseXRefsCounter     prometheus.Counter
)

func init() {
	searchRequestsCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "gene_search_requests_total",
			Help: "Total number of gene search and autocomplete requests.",
		},
	)
	translateRequestsCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "gene_translate_requests_total",
			Help: "Total number of identifier translation requests.",
		},
	)
	wormbaseXRefsCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "wormbase_xrefs_imported_total",
			Help: "Total number of WormBase cross-references imported by the scheduled refresh.",
		},
	)
	prometheus.MustRegister(searchRequestsCounter, translateRequestsCounter, wormbaseXRefsCounter)
}

func apiKeyAuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cfg.APISecretKey == "" {
			c.Next()
			return
		}
		apiKey := c.GetHeader("X-API-KEY")
		if apiKey != cfg.APISecretKey {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized: Invalid API Key"})
			return
		}
		c.Next()
	}
}

func main() {
	logging, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("can't initialize zap logger: %v", err)
	}
	defer logging.Sync()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal("Config load error", zap.Error(err))
	}

	// Setup Database Connection
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		logging.Fatal("Failed to connect to database", zap.Error(err))
	}
	logging.Info("Successfully connected to genes database.")

	logging.Info("Running database auto-migration...")
	if err := db.AutoMigrate(&models.Organism{}, &models.Gene{}, &models.CrossRefDB{}, &models.CrossRef{}); err != nil {
		logging.Fatal("Auto-migration failed", zap.Error(err))
	}

	// Setup Services
	translator := services.NewTranslator(db, logging)
	searchService := services.NewSearchService(cfg, db, logging)
	xrefImporter := services.NewXRefImporter(db, logging)

	// Setup Router
	router := gin.Default()
	router.Use(gin.Recovery())
	router.Use(apiKeyAuthMiddleware(cfg))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Setup Routes
	setupOrganismRoutes(router, db, logging)
	setupGeneRoutes(router, db, logging, translator, searchService, cfg)
	setupXRDBRoutes(router, db, logging, xrefImporter)
	setupCrossRefRoutes(router, db, logging)

	// Setup Cron: geplanter WormBase-Refresh, nur wenn konfiguriert.
	if cfg.CronSchedule != "" && cfg.WormBaseURL != "" {
		cronScheduler := cron.New()
		fetcher := loaders.NewWormBaseFetcher(logging)
		cronScheduler.AddFunc(cfg.CronSchedule, func() {
			logging.Info("Running scheduled WormBase refresh...")
			pairs, err := fetcher.FetchXRefs(cfg.WormBaseURL)
			if err != nil {
				logging.Error("WormBase fetch failed", zap.Error(err))
				return
			}
			stats, err := xrefImporter.ImportWormBase(pairs, cfg.WormBaseXRDB)
			if err != nil {
				logging.Error("WormBase refresh failed", zap.Error(err))
				return
			}
			wormbaseXRefsCounter.Add(float64(stats.Created))
			logging.Info("WormBase refresh completed",
				zap.Int("created", stats.Created),
				zap.Int("updated", stats.Updated),
				zap.Int("skipped", stats.Skipped))
		})
		cronScheduler.Start()
	}

	logging.Info("Starting server", zap.String("port", cfg.HTTPPort))
	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadTimeout:       30 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil {
		logging.Fatal("Failed to run server", zap.Error(err))
	}
}

// resolveOrganism löst einen Organismus-Parameter auf: wissenschaftlicher
// Name, Slug oder Taxonomy-ID. Leerer Parameter bedeutet "kein Scope".
func resolveOrganism(db *gorm.DB, param string) (*models.Organism, error) {
	if param == "" {
		return nil, nil
	}
	var org models.Organism
	err := db.Where("scientific_name = ? OR slug = ? OR taxonomy_id = ?", param, param, param).
		First(&org).Error
	if err != nil {
		return nil, err
	}
	return &org, nil
}

func setupOrganismRoutes(router *gin.Engine, db *gorm.DB, log *zap.Logger) {
	rg := router.Group("/organisms")

	rg.GET("/", func(c *gin.Context) {
		var orgs []models.Organism
		if err := db.Find(&orgs).Error; err != nil {
			log.Error("Database query for organisms failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, orgs)
	})

	rg.POST("/", func(c *gin.Context) {
		var org models.Organism
		if err := c.ShouldBindJSON(&org); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}
		if err := db.Create(&org).Error; err != nil {
			log.Error("Failed to create organism", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create organism"})
			return
		}
		c.JSON(http.StatusCreated, org)
	})
}

func setupGeneRoutes(router *gin.Engine, db *gorm.DB, log *zap.Logger,
	translator *services.Translator, search *services.SearchService, cfg *config.Config) {
	rg := router.Group("/genes")

	// Listen-Endpunkt mit Feld-Filterung (entrezid, entrezid__in, organism).
	rg.GET("/", func(c *gin.Context) {
		query := db.Model(&models.Gene{}).Preload("CrossRefs")

		if v := c.Query("entrezid"); v != "" {
			entrezid, err := strconv.Atoi(v)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid entrezid"})
				return
			}
			query = query.Where("entrezid = ?", entrezid)
		}
		if v := c.Query("entrezid__in"); v != "" {
			var ids []int
			for _, part := range strings.Split(v, ",") {
				id, err := strconv.Atoi(strings.TrimSpace(part))
				if err != nil {
					c.JSON(http.StatusBadRequest, gin.H{"error": "invalid entrezid__in"})
					return
				}
				ids = append(ids, id)
			}
			query = query.Where("entrezid IN ?", ids)
		}
		if v := c.Query("organism"); v != "" {
			org, err := resolveOrganism(db, v)
			if err != nil {
				c.JSON(http.StatusNotFound, gin.H{"error": "organism not found"})
				return
			}
			query = query.Where("organism_id = ?", org.ID)
		}
		if v := c.Query("limit"); v != "" {
			limit, err := strconv.Atoi(v)
			if err != nil || limit <= 0 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
				return
			}
			query = query.Limit(limit)
		}

		var genes []models.Gene
		if err := query.Order("id").Find(&genes).Error; err != nil {
			log.Error("Database query for genes failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, genes)
	})

	rg.GET("/:id", func(c *gin.Context) {
		id := c.Param("id")
		var gene models.Gene
		if err := db.Preload("CrossRefs").First(&gene, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "gene not found"})
				return
			}
			log.Error("DB error fetching gene", zap.String("id", id), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, gene)
	})

	// Token-Suche, GET und POST (große Anfragen passen nicht in eine URL).
	searchHandler := func(c *gin.Context) {
		searchRequestsCounter.Inc()

		query := c.Query("query")
		organismParam := c.Query("organism")
		limitParam := c.Query("limit")
		if c.Request.Method == http.MethodPost {
			var req struct {
				Query    string `json:"query"`
				Organism string `json:"organism"`
				Limit    int    `json:"limit"`
			}
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
				return
			}
			query = req.Query
			organismParam = req.Organism
			if req.Limit > 0 {
				limitParam = strconv.Itoa(req.Limit)
			}
		}

		org, err := resolveOrganism(db, organismParam)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "organism not found"})
			return
		}
		limit := 0
		if limitParam != "" {
			limit, err = strconv.Atoi(limitParam)
			if err != nil || limit <= 0 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
				return
			}
		}

		results, err := search.Search(query, org, limit)
		if err != nil {
			log.Error("Gene search failed", zap.String("query", query), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "search failed"})
			return
		}
		c.JSON(http.StatusOK, results)
	}
	rg.GET("/search", searchHandler)
	rg.POST("/search", searchHandler)

	rg.GET("/autocomplete", func(c *gin.Context) {
		searchRequestsCounter.Inc()

		org, err := resolveOrganism(db, c.Query("organism"))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "organism not found"})
			return
		}
		limit := 0
		if v := c.Query("limit"); v != "" {
			limit, err = strconv.Atoi(v)
			if err != nil || limit <= 0 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
				return
			}
		}

		genes, err := search.Autocomplete(c.Query("query"), org, limit)
		if err != nil {
			log.Error("Autocomplete failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "autocomplete failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"results": genes})
	})

	// Identifier-Übersetzung zwischen Symbol-Räumen.
	rg.POST("/xrid_translate", func(c *gin.Context) {
		translateRequestsCounter.Inc()

		var req struct {
			GeneList []string `json:"gene_list" binding:"required"`
			FromID   string   `json:"from_id" binding:"required"`
			ToID     string   `json:"to_id" binding:"required"`
			Organism string   `json:"organism"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: gene_list, from_id and to_id are required"})
			return
		}

		fromKind, err := translator.ParseKind(req.FromID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		toKind, err := translator.ParseKind(req.ToID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		org, err := resolveOrganism(db, req.Organism)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "organism not found"})
			return
		}

		result, err := translator.Translate(req.GeneList, fromKind, toKind, org)
		if err != nil {
			log.Error("Translation failed",
				zap.String("from", req.FromID), zap.String("to", req.ToID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "translation failed"})
			return
		}
		c.JSON(http.StatusOK, result)
	})
}

func setupXRDBRoutes(router *gin.Engine, db *gorm.DB, log *zap.Logger, importer *services.XRefImporter) {
	rg := router.Group("/xrdbs")

	rg.GET("/", func(c *gin.Context) {
		var xrdbs []models.CrossRefDB
		if err := db.Find(&xrdbs).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, xrdbs)
	})

	rg.GET("/:name", func(c *gin.Context) {
		var xrdb models.CrossRefDB
		if err := db.Where("name = ?", c.Param("name")).First(&xrdb).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "crossrefdb not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, xrdb)
	})

	// Upsert: anlegen oder URL aktualisieren, wie das addxrdb-Kommando.
	rg.POST("/", func(c *gin.Context) {
		var req struct {
			Name string `json:"name" binding:"required"`
			URL  string `json:"url" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: name and url are required"})
			return
		}
		xrdb, err := importer.UpsertCrossRefDB(req.Name, req.URL)
		if err != nil {
			log.Error("Failed to upsert crossrefdb", zap.String("name", req.Name), zap.Error(err))
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, xrdb)
	})
}

func setupCrossRefRoutes(router *gin.Engine, db *gorm.DB, log *zap.Logger) {
	rg := router.Group("/crossrefs")

	// Antwort-Form mit aufgelöster URL, damit Clients direkt verlinken können.
	type crossRefOut struct {
		ID   uint   `json:"id"`
		XRDB string `json:"xrdb"`
		XRID string `json:"xrid"`
		URL  string `json:"url"`
		Gene uint   `json:"gene_id"`
	}

	rg.GET("/", func(c *gin.Context) {
		query := db.Model(&models.CrossRef{}).Preload("CrossRefDB")

		if v := c.Query("xrdb"); v != "" {
			var xrdb models.CrossRefDB
			if err := db.Where("name = ?", v).First(&xrdb).Error; err != nil {
				c.JSON(http.StatusNotFound, gin.H{"error": "crossrefdb not found"})
				return
			}
			query = query.Where("crossrefdb_id = ?", xrdb.ID)
		}
		if v := c.Query("xrid"); v != "" {
			query = query.Where("xrid = ?", v)
		}
		if v := c.Query("entrezid"); v != "" {
			entrezid, err := strconv.Atoi(v)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid entrezid"})
				return
			}
			query = query.Joins("JOIN genes ON genes.id = crossrefs.gene_id").
				Where("genes.entrezid = ?", entrezid)
		}

		var xrs []models.CrossRef
		if err := query.Order("crossrefs.id").Find(&xrs).Error; err != nil {
			log.Error("Database query for crossrefs failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}

		out := make([]crossRefOut, 0, len(xrs))
		for _, xr := range xrs {
			out = append(out, crossRefOut{
				ID:   xr.ID,
				XRDB: xr.CrossRefDB.Name,
				XRID: xr.XRID,
				URL:  xr.CrossRefDB.ResolveURL(xr.XRID),
				Gene: xr.GeneID,
			})
		}
		c.JSON(http.StatusOK, out)
	})
}
