package main

import (
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/recollect/recollect/rag"
	"github.com/recollect/recollect/rag/types"
	"github.com/sashabaranov/go-openai"
)

type collectionList map[string]*rag.Collection

func startAPI(listenAddress string, collections collectionList, sourceManager *rag.SourceManager, openAIClient *openai.Client) {
	e := echo.New()
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	// API routes for managing collections
	e.POST("/api/collections", createCollection(collections, sourceManager, openAIClient))
	e.GET("/api/collections", listCollections)
	e.GET("/api/collections/:name/entries", listFiles(collections))
	e.GET("/api/collections/:name/stats", statistics(collections))
	e.POST("/api/collections/:name/upload", uploadFile(collections))
	e.POST("/api/collections/:name/search", search(collections))
	e.POST("/api/collections/:name/sources", addSource(sourceManager))
	e.DELETE("/api/collections/:name/sources", removeSource(sourceManager))
	e.POST("/api/collections/:name/reset", reset(collections))
	e.DELETE("/api/collections/:name/entry/delete", deleteEntry(collections))

	e.Logger.Fatal(e.Start(listenAddress))
}

func errorMessage(message string) map[string]string {
	return map[string]string{"error": message}
}

// createCollection handles creating a new collection
func createCollection(collections collectionList, sourceManager *rag.SourceManager, client *openai.Client) func(c echo.Context) error {
	return func(c echo.Context) error {
		type request struct {
			Name string `json:"name"`
		}

		r := new(request)
		if err := c.Bind(r); err != nil || r.Name == "" {
			return c.JSON(http.StatusBadRequest, errorMessage("Invalid request"))
		}
		if _, exists := collections[r.Name]; exists {
			return c.JSON(http.StatusConflict, errorMessage("Collection already exists"))
		}

		collections[r.Name] = newCollection(client, r.Name)
		sourceManager.RegisterCollection(r.Name, collections[r.Name])
		return c.JSON(http.StatusCreated, map[string]string{"name": r.Name})
	}
}

// listCollections returns all collections
func listCollections(c echo.Context) error {
	return c.JSON(http.StatusOK, rag.ListAllCollections(collectionDBPath))
}

func listFiles(collections collectionList) func(c echo.Context) error {
	return func(c echo.Context) error {
		collection, exists := collections[c.Param("name")]
		if !exists {
			return c.JSON(http.StatusNotFound, errorMessage("Collection not found"))
		}
		return c.JSON(http.StatusOK, collection.ListDocuments())
	}
}

// statistics reports content store counters: totals, unique fingerprints
// and per-origin document counts.
func statistics(collections collectionList) func(c echo.Context) error {
	return func(c echo.Context) error {
		collection, exists := collections[c.Param("name")]
		if !exists {
			return c.JSON(http.StatusNotFound, errorMessage("Collection not found"))
		}
		return c.JSON(http.StatusOK, collection.Statistics())
	}
}

// uploadFile handles uploading files to a collection
func uploadFile(collections collectionList) func(c echo.Context) error {
	return func(c echo.Context) error {
		collection, exists := collections[c.Param("name")]
		if !exists {
			return c.JSON(http.StatusNotFound, errorMessage("Collection not found"))
		}

		file, err := c.FormFile("file")
		if err != nil {
			return c.JSON(http.StatusBadRequest, errorMessage("Failed to read file: "+err.Error()))
		}

		f, err := file.Open()
		if err != nil {
			return c.JSON(http.StatusBadRequest, errorMessage("Failed to open file: "+err.Error()))
		}
		defer f.Close()

		filePath := filepath.Join(os.TempDir(), filepath.Base(file.Filename))
		out, err := os.Create(filePath)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, errorMessage("Failed to create file"))
		}
		defer os.Remove(filePath)
		defer out.Close()

		if _, err := io.Copy(out, f); err != nil {
			return c.JSON(http.StatusInternalServerError, errorMessage("Failed to copy file"))
		}
		out.Close()

		if err := collection.Store(filePath); err != nil {
			return c.JSON(http.StatusInternalServerError, errorMessage("Failed to store file: "+err.Error()))
		}

		return c.JSON(http.StatusOK, collection.ListDocuments())
	}
}

// search answers a query in keyword, semantic or hybrid mode.
func search(collections collectionList) func(c echo.Context) error {
	return func(c echo.Context) error {
		collection, exists := collections[c.Param("name")]
		if !exists {
			return c.JSON(http.StatusNotFound, errorMessage("Collection not found"))
		}

		type request struct {
			Query      string `json:"query"`
			Mode       string `json:"mode"`
			MaxResults int    `json:"max_results"`
		}

		r := new(request)
		if err := c.Bind(r); err != nil {
			return c.JSON(http.StatusBadRequest, errorMessage("Invalid request"))
		}

		mode, err := types.ParseMode(r.Mode)
		if err != nil {
			return c.JSON(http.StatusBadRequest, errorMessage(err.Error()))
		}

		response, err := collection.Query(r.Query, mode, r.MaxResults)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, errorMessage("Failed to search collection: "+err.Error()))
		}

		return c.JSON(http.StatusOK, response)
	}
}

// addSource registers an external URL that is periodically refreshed into
// the collection.
func addSource(sourceManager *rag.SourceManager) func(c echo.Context) error {
	return func(c echo.Context) error {
		type request struct {
			URL            string `json:"url"`
			UpdateInterval string `json:"update_interval"`
		}

		r := new(request)
		if err := c.Bind(r); err != nil || r.URL == "" {
			return c.JSON(http.StatusBadRequest, errorMessage("Invalid request"))
		}

		interval := time.Hour
		if r.UpdateInterval != "" {
			parsed, err := time.ParseDuration(r.UpdateInterval)
			if err != nil {
				return c.JSON(http.StatusBadRequest, errorMessage("Invalid update interval: "+err.Error()))
			}
			interval = parsed
		}

		if err := sourceManager.AddSource(c.Param("name"), r.URL, interval); err != nil {
			return c.JSON(http.StatusInternalServerError, errorMessage(err.Error()))
		}

		return c.JSON(http.StatusCreated, map[string]string{"url": r.URL})
	}
}

func removeSource(sourceManager *rag.SourceManager) func(c echo.Context) error {
	return func(c echo.Context) error {
		type request struct {
			URL string `json:"url"`
		}

		r := new(request)
		if err := c.Bind(r); err != nil || r.URL == "" {
			return c.JSON(http.StatusBadRequest, errorMessage("Invalid request"))
		}

		if err := sourceManager.RemoveSource(c.Param("name"), r.URL); err != nil {
			return c.JSON(http.StatusInternalServerError, errorMessage(err.Error()))
		}

		return c.NoContent(http.StatusNoContent)
	}
}

func reset(collections collectionList) func(c echo.Context) error {
	return func(c echo.Context) error {
		collection, exists := collections[c.Param("name")]
		if !exists {
			return c.JSON(http.StatusNotFound, errorMessage("Collection not found"))
		}

		if err := collection.Reset(); err != nil {
			return c.JSON(http.StatusInternalServerError, errorMessage("Failed to reset collection"))
		}
		return c.NoContent(http.StatusOK)
	}
}

func deleteEntry(collections collectionList) func(c echo.Context) error {
	return func(c echo.Context) error {
		collection, exists := collections[c.Param("name")]
		if !exists {
			return c.JSON(http.StatusNotFound, errorMessage("Collection not found"))
		}

		type request struct {
			Entry string `json:"entry"`
		}

		r := new(request)
		if err := c.Bind(r); err != nil {
			return c.JSON(http.StatusBadRequest, errorMessage("Invalid request"))
		}

		if err := collection.RemoveEntry(r.Entry); err != nil {
			return c.JSON(http.StatusInternalServerError, errorMessage("Failed to remove entry"))
		}

		return c.JSON(http.StatusOK, collection.ListDocuments())
	}
}
