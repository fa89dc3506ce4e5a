package service

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/roshank8848/contactmanager-backend/internal/logger"
	"github.com/roshank8848/contactmanager-backend/internal/metrics"
	"github.com/roshank8848/contactmanager-backend/internal/model"
	"github.com/roshank8848/contactmanager-backend/internal/store"
)

// Service exposes a contact store as a REST API.
type Service struct {
	store *store.Store
}

// New creates a Service backed by the given store.
func New(st *store.Store) *Service {
	return &Service{store: st}
}

// SetupHTTPRouter initializes the REST API router and registers all
// endpoints. Additional middleware (CORS, request IDs, request logging,
// metrics collection) is passed in by the caller; unit tests run the bare
// router.
func (s *Service) SetupHTTPRouter(extra ...gin.HandlerFunc) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(extra...)
	router.GET("/", welcome)
	router.GET("/health", health)
	router.GET("/metrics", metrics.Handler())
	router.GET("/contacts", s.findContacts)
	router.POST("/contacts", s.createContact)
	router.GET("/contacts/:id", s.findContactByID)
	router.PUT("/contacts/:id", s.updateContactByID)
	router.DELETE("/contacts/:id", s.deleteContactByID)
	return router
}

// welcome responds with a static greeting so that a browser pointed at the
// service root sees something friendlier than a 404.
//
// Example REST API call:
//
//	> curl http://localhost:8080/
func welcome(c *gin.Context) {
	c.IndentedJSON(http.StatusOK, gin.H{"message": "Welcome to Contact Manager API"})
}

// health reports liveness for load balancers and startup probes.
//
// Example REST API call:
//
//	> curl http://localhost:8080/health
func health(c *gin.Context) {
	c.IndentedJSON(http.StatusOK, gin.H{"status": "ok"})
}

// findContacts responds with a list of contacts as JSON.
//
// The URL parameter 'search' is matched case-insensitively against the first
// name, the last name and the email address of each contact; a contact is
// included if the text occurs anywhere inside one of the three.
//
// The URL parameter 'limit' specifies how many contacts matching the search
// criteria are returned, 100 if omitted. The URL parameter 'skip' specifies
// how many items from the id-ordered list of results are skipped in the
// beginning, 0 if omitted. Together, the two implement search result paging.
//
// REST API calls:
//
//	> curl "http://localhost:8080/contacts"
//	> curl "http://localhost:8080/contacts?search=smi"
//	> curl "http://localhost:8080/contacts?limit=20&skip=60"
func (s *Service) findContacts(c *gin.Context) {
	params, success := parseListParams(c)
	if !success {
		return
	}
	contacts, err := s.store.List(c.Request.Context(), params)
	if err != nil {
		renderStoreError(c, err)
		return
	}
	c.IndentedJSON(http.StatusOK, contacts)
}

// parseListParams inspects the URL parameters and determines values for
// skip, limit and search of the result set.
func parseListParams(c *gin.Context) (store.ListParams, bool) {
	params := store.ListParams{Skip: store.DefaultSkip, Limit: store.DefaultLimit}
	if skip := c.Query("skip"); skip != "" {
		skipAsInt, errConv := strconv.Atoi(skip)
		if errConv != nil || skipAsInt < 0 {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "invalid skip parameter"})
			return store.ListParams{}, false
		}
		params.Skip = skipAsInt
	}
	if limit := c.Query("limit"); limit != "" {
		limitAsInt, errConv := strconv.Atoi(limit)
		if errConv != nil || limitAsInt < 1 {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "invalid limit parameter"})
			return store.ListParams{}, false
		}
		params.Limit = limitAsInt
	}
	params.Search = c.Query("search")
	return params, true
}

// parseID inspects the id path parameter. An id that is not a number cannot
// match any contact, so it is reported as not found.
func parseID(c *gin.Context) (int64, bool) {
	id, errConv := strconv.ParseInt(c.Param("id"), 10, 64)
	if errConv != nil {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"message": "invalid id parameter"})
		return 0, false
	}
	return id, true
}

// createContact inserts the contact specified in the request's JSON into the
// database. It responds with the full contact data including the newly
// assigned id.
//
// The fields first_name, last_name, email and phone_number are required and
// must not be empty; email must be a syntactically valid address. The
// address field is optional.
//
// Example REST API call:
//
//	> curl http://localhost:8080/contacts --request "POST" --include --header "Content-Type: application/json" --data '{"first_name": "Hans", "last_name": "Wurst", "email": "hans@example.com", "phone_number": "0815"}'
func (s *Service) createContact(c *gin.Context) {
	var changes model.ContactChanges
	if err := c.ShouldBindJSON(&changes); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "invalid JSON"})
		return
	}
	contact, err := s.store.Create(c.Request.Context(), changes)
	if err != nil {
		renderStoreError(c, err)
		return
	}
	c.IndentedJSON(http.StatusOK, contact)
}

// findContactByID locates the contact whose id matches the id parameter of
// the request URL, then returns that contact as a response.
//
// Example REST API call:
//
//	> curl http://localhost:8080/contacts/56
func (s *Service) findContactByID(c *gin.Context) {
	id, success := parseID(c)
	if !success {
		return
	}
	contact, err := s.store.Get(c.Request.Context(), id)
	if err != nil {
		renderStoreError(c, err)
		return
	}
	c.IndentedJSON(http.StatusOK, contact)
}

// updateContactByID updates the contact whose id matches the id parameter of
// the request URL, overwrites the values specified in the JSON (and only
// those), and finally responds with the new version of the contact.
//
// Example REST API calls:
//
//	> curl http://localhost:8080/contacts/56 --request "PUT" --include --header "Content-Type: application/json" --data '{"phone_number": "81970"}'
//	> curl http://localhost:8080/contacts/56 --request "PUT" --include --header "Content-Type: application/json" --data '{"first_name": "Maxi", "address": "Hauptstrasse 2"}'
func (s *Service) updateContactByID(c *gin.Context) {
	id, success := parseID(c)
	if !success {
		return
	}
	var changes model.ContactChanges
	if err := c.ShouldBindJSON(&changes); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "invalid JSON"})
		return
	}
	contact, err := s.store.Update(c.Request.Context(), id, changes)
	if err != nil {
		renderStoreError(c, err)
		return
	}
	c.IndentedJSON(http.StatusOK, contact)
}

// deleteContactByID deletes the contact whose id matches the id parameter of
// the request URL from the database and responds with the contact as it was
// immediately before the deletion.
//
// Example REST API call:
//
//	> curl http://localhost:8080/contacts/56 --request "DELETE"
func (s *Service) deleteContactByID(c *gin.Context) {
	id, success := parseID(c)
	if !success {
		return
	}
	contact, err := s.store.Delete(c.Request.Context(), id)
	if err != nil {
		renderStoreError(c, err)
		return
	}
	c.IndentedJSON(http.StatusOK, contact)
}

// renderStoreError maps store errors onto HTTP responses. Expected
// conditions keep their specific status codes; anything else becomes a plain
// 500 so that no database detail leaks to the caller.
func renderStoreError(c *gin.Context, err error) {
	var verr *store.ValidationError
	switch {
	case errors.Is(err, store.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"message": "contact not found"})
	case errors.As(err, &verr):
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{
			"message": "validation failed",
			"fields":  verr.Fields,
		})
	default:
		logger.FromContext(c).Error("store operation failed", zap.Error(err))
		_ = c.Error(err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "internal server error"})
	}
}
