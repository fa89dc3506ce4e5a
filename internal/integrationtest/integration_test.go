package integrationtest

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"

	"github.com/roshank8848/contactmanager-backend/internal/config"
	"github.com/roshank8848/contactmanager-backend/internal/model"
	"github.com/roshank8848/contactmanager-backend/internal/service"
	"github.com/roshank8848/contactmanager-backend/internal/store"
)

// setupRouter connects to the database configured in the environment and
// returns a router serving the full REST API. The suite is skipped when
// DB_HOST is not set, so that 'go test ./...' stays usable without a running
// database.
func setupRouter(t *testing.T) *gin.Engine {
	if os.Getenv("DB_HOST") == "" {
		t.Skip("DB_HOST not set, skipping integration tests")
	}
	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("could not load configuration: %s", err)
	}
	sqlDB, err := sql.Open("mysql", cfg.Database.DSN())
	if err != nil {
		t.Fatalf("could not open database: %s", err)
	}
	t.Cleanup(func() { sqlDB.Close() })
	st, err := store.New(sqlDB)
	if err != nil {
		t.Fatalf("could not prepare contact store: %s", err)
	}
	gin.SetMode(gin.ReleaseMode)
	return service.New(st).SetupHTTPRouter()
}

// uniqueMarker returns a string that no other test run will have stored,
// so searches can be narrowed to the contacts of this very test.
func uniqueMarker() string {
	return fmt.Sprintf("Itest%d", time.Now().UnixNano())
}

// createContact posts the given JSON and returns the id of the new contact
// both as a string for URLs and as the float64 that JSON numbers decode to.
func createContact(t *testing.T, router *gin.Engine, body string) (string, float64) {
	postRecorder := httptest.NewRecorder()
	postRequest, _ := http.NewRequest("POST", "/contacts", strings.NewReader(body))
	router.ServeHTTP(postRecorder, postRequest)
	assert.Equal(t, http.StatusOK, postRecorder.Code)
	var postBody map[string]interface{}
	json.Unmarshal(postRecorder.Body.Bytes(), &postBody)
	idAsFloat64, _ := postBody["id"].(float64)
	return fmt.Sprintf("%.0f", idAsFloat64), idAsFloat64
}

// deleteContact deletes the contact with the specified id. It can be used
// for cleaning up after the test.
func deleteContact(t *testing.T, router *gin.Engine, id string) {
	deleteRecorder := httptest.NewRecorder()
	deleteRequest, _ := http.NewRequest("DELETE", fmt.Sprintf("/contacts/%s", id), nil)
	router.ServeHTTP(deleteRecorder, deleteRequest)
	assert.Equal(t, http.StatusOK, deleteRecorder.Code)
}

// TestContactHappyPath tests a POST, GET, PUT, and DELETE with valid data.
func TestContactHappyPath(t *testing.T) {
	router := setupRouter(t)

	// test the endpoint for creating a contact
	postRecorder := httptest.NewRecorder()
	postRequest, _ := http.NewRequest("POST", "/contacts", strings.NewReader(`
		{
			"first_name": "Erika",
			"last_name": "Mustermann",
			"email": "erika.mustermann@example.com",
			"phone_number": "+49 0815 4711"
		}
	`))
	router.ServeHTTP(postRecorder, postRequest)
	assert.Equal(t, http.StatusOK, postRecorder.Code)
	var postBody map[string]interface{}
	json.Unmarshal(postRecorder.Body.Bytes(), &postBody)
	assert.Equal(t, "Erika", postBody["first_name"])
	assert.Equal(t, "Mustermann", postBody["last_name"])
	assert.Equal(t, "erika.mustermann@example.com", postBody["email"])
	assert.Equal(t, "+49 0815 4711", postBody["phone_number"])
	assert.Nil(t, postBody["address"])
	idAsFloat64 := postBody["id"]
	idAsString := fmt.Sprintf("%.0f", idAsFloat64)

	// test the endpoint for finding a contact
	getRecorder := httptest.NewRecorder()
	getRequest, _ := http.NewRequest("GET", "/contacts/"+idAsString, nil)
	router.ServeHTTP(getRecorder, getRequest)
	assert.Equal(t, http.StatusOK, getRecorder.Code)
	var getBody map[string]interface{}
	json.Unmarshal(getRecorder.Body.Bytes(), &getBody)
	assert.Equal(t, idAsFloat64, getBody["id"])
	assert.Equal(t, "Erika", getBody["first_name"])
	assert.Equal(t, "Mustermann", getBody["last_name"])

	// test the endpoint for updating a contact
	putRecorder := httptest.NewRecorder()
	putRequest, _ := http.NewRequest("PUT", "/contacts/"+idAsString, strings.NewReader(`
		{
			"first_name": "Rudi",
			"last_name": "Voeller",
			"email": "rudi.voeller@example.com",
			"phone_number": "+49 1234567890",
			"address": "Hauptstrasse 2"
		}
	`))
	router.ServeHTTP(putRecorder, putRequest)
	assert.Equal(t, http.StatusOK, putRecorder.Code)
	var putBody map[string]interface{}
	json.Unmarshal(putRecorder.Body.Bytes(), &putBody)
	assert.Equal(t, idAsFloat64, putBody["id"])
	assert.Equal(t, "Rudi", putBody["first_name"])
	assert.Equal(t, "Voeller", putBody["last_name"])
	assert.Equal(t, "rudi.voeller@example.com", putBody["email"])
	assert.Equal(t, "+49 1234567890", putBody["phone_number"])
	assert.Equal(t, "Hauptstrasse 2", putBody["address"])

	// test if a subsequent lookup of the contact returns the updated values
	getAgainRecorder := httptest.NewRecorder()
	getAgainRequest, _ := http.NewRequest("GET", "/contacts/"+idAsString, nil)
	router.ServeHTTP(getAgainRecorder, getAgainRequest)
	assert.Equal(t, http.StatusOK, getAgainRecorder.Code)
	var getAgainBody map[string]interface{}
	json.Unmarshal(getAgainRecorder.Body.Bytes(), &getAgainBody)
	assert.Equal(t, idAsFloat64, getAgainBody["id"])
	assert.Equal(t, "Rudi", getAgainBody["first_name"])
	assert.Equal(t, "Hauptstrasse 2", getAgainBody["address"])

	// test that deleting the contact returns its last state
	deleteRecorder := httptest.NewRecorder()
	deleteRequest, _ := http.NewRequest("DELETE", "/contacts/"+idAsString, nil)
	router.ServeHTTP(deleteRecorder, deleteRequest)
	assert.Equal(t, http.StatusOK, deleteRecorder.Code)
	var deleteBody map[string]interface{}
	json.Unmarshal(deleteRecorder.Body.Bytes(), &deleteBody)
	assert.Equal(t, idAsFloat64, deleteBody["id"])
	assert.Equal(t, "Rudi", deleteBody["first_name"])

	// test if a final lookup of the contact will correctly not find it
	getFinalRecorder := httptest.NewRecorder()
	getFinalRequest, _ := http.NewRequest("GET", "/contacts/"+idAsString, nil)
	router.ServeHTTP(getFinalRecorder, getFinalRequest)
	assert.Equal(t, http.StatusNotFound, getFinalRecorder.Code)
}

// TestCreateContactInvalidBody tests a POST with different forms of invalid
// request body data.
func TestCreateContactInvalidBody(t *testing.T) {
	router := setupRouter(t)

	invalidRequestBodies := []string{
		"",
		"not JSON",
		`{
			"first_name": "Erika"
			"last_name": "Mustermann"
		}`, // commas missing
	}
	for _, body := range invalidRequestBodies {
		recorder := httptest.NewRecorder()
		request, _ := http.NewRequest("POST", "/contacts", strings.NewReader(body))
		router.ServeHTTP(recorder, request)
		assert.Equal(t, http.StatusBadRequest, recorder.Code, "request body: "+body)
	}
}

// TestCreateContactMissingFields tests a POST with an empty JSON object. All
// required fields are reported at once.
func TestCreateContactMissingFields(t *testing.T) {
	router := setupRouter(t)

	recorder := httptest.NewRecorder()
	request, _ := http.NewRequest("POST", "/contacts", strings.NewReader("{}"))
	router.ServeHTTP(recorder, request)
	assert.Equal(t, http.StatusUnprocessableEntity, recorder.Code)
	var body map[string]interface{}
	json.Unmarshal(recorder.Body.Bytes(), &body)
	fields, ok := body["fields"].(map[string]interface{})
	assert.True(t, ok)
	assert.Contains(t, fields, "first_name")
	assert.Contains(t, fields, "last_name")
	assert.Contains(t, fields, "email")
	assert.Contains(t, fields, "phone_number")
}

// TestCreateContactEmptyFields tests a POST whose required fields are
// present but empty. The valid email is not reported.
func TestCreateContactEmptyFields(t *testing.T) {
	router := setupRouter(t)

	recorder := httptest.NewRecorder()
	request, _ := http.NewRequest("POST", "/contacts", strings.NewReader(`
		{
			"first_name": "",
			"last_name": "",
			"email": "erika@example.com",
			"phone_number": ""
		}
	`))
	router.ServeHTTP(recorder, request)
	assert.Equal(t, http.StatusUnprocessableEntity, recorder.Code)
	var body map[string]interface{}
	json.Unmarshal(recorder.Body.Bytes(), &body)
	fields, ok := body["fields"].(map[string]interface{})
	assert.True(t, ok)
	assert.Contains(t, fields, "first_name")
	assert.Contains(t, fields, "last_name")
	assert.Contains(t, fields, "phone_number")
	assert.NotContains(t, fields, "email")
}

// TestUpdateContactInvalidId tests a PUT with an invalid id.
func TestUpdateContactInvalidId(t *testing.T) {
	router := setupRouter(t)

	recorder := httptest.NewRecorder()
	request, _ := http.NewRequest("PUT", "/contacts/invalid", strings.NewReader(`
		{
			"first_name": "Rudi"
		}
	`))
	router.ServeHTTP(recorder, request)
	assert.Equal(t, http.StatusNotFound, recorder.Code)
}

// TestUpdateContactInvalidBody tests a PUT with a valid id but an invalid
// request body.
func TestUpdateContactInvalidBody(t *testing.T) {
	router := setupRouter(t)

	idAsString, _ := createContact(t, router, `
		{
			"first_name": "Erika",
			"last_name": "Mustermann",
			"email": "erika@example.com",
			"phone_number": "+49 0815 4711"
		}
	`)

	invalidRequestBodies := []string{
		"",
		"not JSON",
		`{
			"first_name": "Erika"
			"last_name": "Mustermann"
		}`, // commas missing
	}
	for _, body := range invalidRequestBodies {
		putRecorder := httptest.NewRecorder()
		putRequest, _ := http.NewRequest("PUT", "/contacts/"+idAsString, strings.NewReader(body))
		router.ServeHTTP(putRecorder, putRequest)
		assert.Equal(t, http.StatusBadRequest, putRecorder.Code, "request body: "+body)
	}

	// an empty change-set is well-formed JSON but not updatable
	putRecorder := httptest.NewRecorder()
	putRequest, _ := http.NewRequest("PUT", "/contacts/"+idAsString, strings.NewReader("{}"))
	router.ServeHTTP(putRecorder, putRequest)
	assert.Equal(t, http.StatusUnprocessableEntity, putRecorder.Code)

	// clean up after the test
	deleteContact(t, router, idAsString)
}

// TestUpdateContactPartially tests a PUT with only one field specified in
// the JSON. It verifies that the other fields keep their stored values.
func TestUpdateContactPartially(t *testing.T) {
	router := setupRouter(t)

	idAsString, idAsFloat64 := createContact(t, router, `
		{
			"first_name": "Erika",
			"last_name": "Mustermann",
			"email": "erika@example.com",
			"phone_number": "+49 0815 4711"
		}
	`)

	putRecorder := httptest.NewRecorder()
	putRequest, _ := http.NewRequest("PUT", "/contacts/"+idAsString, strings.NewReader(`
		{
			"first_name": "Rudi"
		}
	`))
	router.ServeHTTP(putRecorder, putRequest)
	assert.Equal(t, http.StatusOK, putRecorder.Code)
	var putBody map[string]interface{}
	json.Unmarshal(putRecorder.Body.Bytes(), &putBody)
	assert.Equal(t, idAsFloat64, putBody["id"])
	assert.Equal(t, "Rudi", putBody["first_name"])
	assert.Equal(t, "Mustermann", putBody["last_name"])
	assert.Equal(t, "erika@example.com", putBody["email"])
	assert.Equal(t, "+49 0815 4711", putBody["phone_number"])

	// verify that the merge also reached the database
	getRecorder := httptest.NewRecorder()
	getRequest, _ := http.NewRequest("GET", "/contacts/"+idAsString, nil)
	router.ServeHTTP(getRecorder, getRequest)
	assert.Equal(t, http.StatusOK, getRecorder.Code)
	var getBody map[string]interface{}
	json.Unmarshal(getRecorder.Body.Bytes(), &getBody)
	assert.Equal(t, "Rudi", getBody["first_name"])
	assert.Equal(t, "Mustermann", getBody["last_name"])

	// clean up after the test
	deleteContact(t, router, idAsString)
}

// TestFindAllContacts retrieves contacts and verifies that a previously
// created contact is among them.
func TestFindAllContacts(t *testing.T) {
	router := setupRouter(t)

	marker := uniqueMarker()
	idAsString, idAsFloat64 := createContact(t, router, fmt.Sprintf(`
		{
			"first_name": "Julius",
			"last_name": "%s",
			"email": "julius@example.com",
			"phone_number": "+39 123 456 789"
		}
	`, marker))
	idFromPost := int64(idAsFloat64)

	// narrow the search to this test's contact
	getRecorder := httptest.NewRecorder()
	getRequest, _ := http.NewRequest("GET", "/contacts?search="+marker, nil)
	router.ServeHTTP(getRecorder, getRequest)
	assert.Equal(t, http.StatusOK, getRecorder.Code)
	var contacts []model.Contact
	json.Unmarshal(getRecorder.Body.Bytes(), &contacts)
	var found bool
	for _, contact := range contacts {
		if contact.Id == idFromPost {
			assert.Equal(t, "Julius", contact.FirstName)
			assert.Equal(t, marker, contact.LastName)
			assert.Equal(t, "julius@example.com", contact.Email)
			assert.Equal(t, "+39 123 456 789", contact.PhoneNumber)
			found = true
		}
	}
	assert.True(t, found, "could not find contact")

	// clean up after the test
	deleteContact(t, router, idAsString)
}

// TestSearchMatchesAnyField verifies that the search text is matched
// case-insensitively against first name, last name and email, and that
// non-matching contacts stay out of the result.
func TestSearchMatchesAnyField(t *testing.T) {
	router := setupRouter(t)

	marker := uniqueMarker()
	byFirstName, firstId := createContact(t, router, fmt.Sprintf(`
		{
			"first_name": "%s",
			"last_name": "Caesar",
			"email": "julius.caesar@example.com",
			"phone_number": "+39 111"
		}
	`, marker))
	byEmail, emailId := createContact(t, router, fmt.Sprintf(`
		{
			"first_name": "Marc",
			"last_name": "Anton",
			"email": "%s@example.com",
			"phone_number": "+39 222"
		}
	`, marker))
	unrelated, unrelatedId := createContact(t, router, `
		{
			"first_name": "Cleo",
			"last_name": "Patra",
			"email": "cleo.patra@example.com",
			"phone_number": "+20 333"
		}
	`)

	// search with a different casing than was stored
	getRecorder := httptest.NewRecorder()
	getRequest, _ := http.NewRequest("GET", "/contacts?search="+strings.ToUpper(marker), nil)
	router.ServeHTTP(getRecorder, getRequest)
	assert.Equal(t, http.StatusOK, getRecorder.Code)
	var contacts []model.Contact
	json.Unmarshal(getRecorder.Body.Bytes(), &contacts)
	assert.Equal(t, 2, len(contacts))
	foundIds := []int64{contacts[0].Id, contacts[1].Id}
	assert.Contains(t, foundIds, int64(firstId))
	assert.Contains(t, foundIds, int64(emailId))
	assert.NotContains(t, foundIds, int64(unrelatedId))

	// clean up after the test
	deleteContact(t, router, byFirstName)
	deleteContact(t, router, byEmail)
	deleteContact(t, router, unrelated)
}

// TestFindContactsPaged creates three contacts and walks them with limit
// and skip. The result order must follow the ids.
func TestFindContactsPaged(t *testing.T) {
	router := setupRouter(t)

	marker := uniqueMarker()
	ids := [3]int64{}
	idStrings := [3]string{}
	for i := range ids {
		idAsString, idAsFloat64 := createContact(t, router, fmt.Sprintf(`
			{
				"first_name": "Number%d",
				"last_name": "%s",
				"email": "number%d@example.com",
				"phone_number": "+420 %d"
			}
		`, i, marker, i, i))
		ids[i] = int64(idAsFloat64)
		idStrings[i] = idAsString
	}

	// first page
	getRecorder := httptest.NewRecorder()
	getRequest, _ := http.NewRequest("GET", "/contacts?search="+marker+"&limit=2", nil)
	router.ServeHTTP(getRecorder, getRequest)
	assert.Equal(t, http.StatusOK, getRecorder.Code)
	var firstPage []model.Contact
	json.Unmarshal(getRecorder.Body.Bytes(), &firstPage)
	assert.Equal(t, 2, len(firstPage))
	assert.Equal(t, ids[0], firstPage[0].Id)
	assert.Equal(t, ids[1], firstPage[1].Id)

	// second page
	getAgainRecorder := httptest.NewRecorder()
	getAgainRequest, _ := http.NewRequest("GET", "/contacts?search="+marker+"&limit=2&skip=2", nil)
	router.ServeHTTP(getAgainRecorder, getAgainRequest)
	assert.Equal(t, http.StatusOK, getAgainRecorder.Code)
	var secondPage []model.Contact
	json.Unmarshal(getAgainRecorder.Body.Bytes(), &secondPage)
	assert.Equal(t, 1, len(secondPage))
	assert.Equal(t, ids[2], secondPage[0].Id)

	// clean up after the test
	for _, id := range idStrings {
		deleteContact(t, router, id)
	}
}

// TestFindContactsInvalidPaging tries to find contacts with invalid values
// for the paging URL parameters.
func TestFindContactsInvalidPaging(t *testing.T) {
	router := setupRouter(t)

	for _, query := range []string{"limit=0", "limit=INVALID", "skip=-1"} {
		recorder := httptest.NewRecorder()
		request, _ := http.NewRequest("GET", "/contacts?"+query, nil)
		router.ServeHTTP(recorder, request)
		assert.Equal(t, http.StatusBadRequest, recorder.Code, "query: "+query)
	}
}

// TestFindContactInvalidId tests a GET with an invalid id.
func TestFindContactInvalidId(t *testing.T) {
	router := setupRouter(t)

	recorder := httptest.NewRecorder()
	request, _ := http.NewRequest("GET", "/contacts/invalid", nil)
	router.ServeHTTP(recorder, request)
	assert.Equal(t, http.StatusNotFound, recorder.Code)
}

// TestDeleteContactInvalidId tests a DELETE with an invalid id.
func TestDeleteContactInvalidId(t *testing.T) {
	router := setupRouter(t)

	recorder := httptest.NewRecorder()
	request, _ := http.NewRequest("DELETE", "/contacts/invalid", nil)
	router.ServeHTTP(recorder, request)
	assert.Equal(t, http.StatusNotFound, recorder.Code)
}
