package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/anonto42/historical-artifacts/backend/internal/middleware"
	"github.com/anonto42/historical-artifacts/backend/internal/models"
	"github.com/anonto42/historical-artifacts/backend/pkg/config"
	"github.com/anonto42/historical-artifacts/backend/validators"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "artifact-test-secret"

type testServer struct {
	e         *echo.Echo
	store     *memoryStore
	ranking   *recordingCache
	publisher *recordingPublisher
}

func newTestServer(t *testing.T, env string, issue ...echo.MiddlewareFunc) *testServer {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)

	ts := &testServer{
		e:         echo.New(),
		store:     newMemoryStore(),
		ranking:   &recordingCache{},
		publisher: &recordingPublisher{},
	}
	ts.e.Validator = validators.NewValidator()

	g := ts.e.Group("")
	NewAuthHandler(testSecret, config.NewCookiePolicy(env)).RegisterAuthRoutes(g, issue...)
	NewArtifactHandler(fakeArtifactRepository{ts.store}, ts.ranking, log).
		RegisterArtifactRoutes(g, middleware.JWTCookieMiddleware(testSecret))
	NewLikeHandler(fakeLikeRepository{ts.store}, ts.ranking, ts.publisher, log).RegisterLikeRoutes(g)
	return ts
}

func (ts *testServer) do(t *testing.T, method, target, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	ts.e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func (ts *testServer) create(t *testing.T, body string) string {
	t.Helper()
	rec := ts.do(t, http.MethodPost, "/historical", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	res := decode[models.InsertResult](t, rec)
	require.True(t, res.Acknowledged)
	return res.InsertedID
}

func (ts *testServer) login(t *testing.T, email string) *http.Cookie {
	t.Helper()
	rec := ts.do(t, http.MethodPost, "/jwt", `{"email":"`+email+`"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	c := tokenCookie(rec)
	require.NotNil(t, c, "no token cookie set")
	return c
}

func TestCreateThenGet(t *testing.T) {
	ts := newTestServer(t, "development")
	id := ts.create(t, `{"artifact_name":"Rosetta Stone","artifact_type":"Documents","email":"owner@example.com","like_count":40,"status":"new"}`)

	rec := ts.do(t, http.MethodGet, "/historical/"+id, "")
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[models.Artifact](t, rec)
	assert.Equal(t, id, got.ID.Hex())
	assert.Equal(t, "Rosetta Stone", got.ArtifactName)
	assert.Equal(t, "Documents", got.ArtifactType)
	assert.Equal(t, "owner@example.com", got.Email)
	assert.Equal(t, "new", got.Status)
	assert.Equal(t, 40, got.LikeCount)
}

func TestCreateDefaultsLikeCount(t *testing.T) {
	ts := newTestServer(t, "development")
	id := ts.create(t, `{"artifact_name":"Standard of Ur"}`)
	got := decode[models.Artifact](t, ts.do(t, http.MethodGet, "/historical/"+id, ""))
	assert.Equal(t, 0, got.LikeCount)

	rec := ts.do(t, http.MethodPost, "/historical", `{"artifact_name":"Standard of Ur","like_count":-3}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateRejectsBadEmail(t *testing.T) {
	ts := newTestServer(t, "development")
	rec := ts.do(t, http.MethodPost, "/historical", `{"artifact_name":"x","email":"not-an-email"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetArtifactUnknownAndInvalid(t *testing.T) {
	ts := newTestServer(t, "development")

	rec := ts.do(t, http.MethodGet, "/historical/65f1c2a9e4b0a1b2c3d4e5f6", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "null", strings.TrimSpace(rec.Body.String()))

	rec = ts.do(t, http.MethodGet, "/historical/not-an-id", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpsertIsIdempotent(t *testing.T) {
	ts := newTestServer(t, "development")
	const id = "65f1c2a9e4b0a1b2c3d4e5f6"
	body := `{"artifact_name":"Mask of Tutankhamun","artifact_type":"Sculpture","present_location":"Cairo"}`

	rec := ts.do(t, http.MethodPut, "/historical/"+id, body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	first := decode[models.UpdateResult](t, rec)
	assert.EqualValues(t, 1, first.UpsertedCount)
	require.NotNil(t, first.UpsertedID)
	assert.Equal(t, id, *first.UpsertedID)
	afterFirst := decode[models.Artifact](t, ts.do(t, http.MethodGet, "/historical/"+id, ""))

	rec = ts.do(t, http.MethodPut, "/historical/"+id, body)
	require.Equal(t, http.StatusOK, rec.Code)
	second := decode[models.UpdateResult](t, rec)
	assert.EqualValues(t, 1, second.MatchedCount)
	assert.EqualValues(t, 0, second.ModifiedCount)
	assert.Nil(t, second.UpsertedID)
	afterSecond := decode[models.Artifact](t, ts.do(t, http.MethodGet, "/historical/"+id, ""))

	assert.Equal(t, afterFirst, afterSecond)
	assert.Equal(t, "Cairo", afterSecond.PresentLocation)
}

func TestUpsertKeepsUnsentFields(t *testing.T) {
	ts := newTestServer(t, "development")
	id := ts.create(t, `{"artifact_name":"Venus de Milo","artifact_type":"Sculpture"}`)

	rec := ts.do(t, http.MethodPut, "/historical/"+id, `{"present_location":"Louvre"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	got := decode[models.Artifact](t, ts.do(t, http.MethodGet, "/historical/"+id, ""))
	assert.Equal(t, "Venus de Milo", got.ArtifactName)
	assert.Equal(t, "Louvre", got.PresentLocation)
}

func TestUpsertRejectsEmptyBody(t *testing.T) {
	ts := newTestServer(t, "development")
	rec := ts.do(t, http.MethodPut, "/historical/65f1c2a9e4b0a1b2c3d4e5f6", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteArtifact(t *testing.T) {
	ts := newTestServer(t, "development")
	id := ts.create(t, `{"artifact_name":"Lewis Chessmen"}`)

	rec := ts.do(t, http.MethodDelete, "/historical/"+id, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, decode[models.DeleteResult](t, rec).DeletedCount)

	rec = ts.do(t, http.MethodDelete, "/historical/"+id, "")
	assert.EqualValues(t, 0, decode[models.DeleteResult](t, rec).DeletedCount)

	rec = ts.do(t, http.MethodGet, "/historical/"+id, "")
	assert.Equal(t, "null", strings.TrimSpace(rec.Body.String()))
}

func TestUpdateStatus(t *testing.T) {
	ts := newTestServer(t, "development")
	id := ts.create(t, `{"artifact_name":"Nebra Sky Disc","status":"pending"}`)

	rec := ts.do(t, http.MethodPatch, "/like-update/"+id, `{"status":"approved"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, decode[models.UpdateResult](t, rec).MatchedCount)

	got := decode[models.Artifact](t, ts.do(t, http.MethodGet, "/historical/"+id, ""))
	assert.Equal(t, "approved", got.Status)
	assert.Equal(t, "Nebra Sky Disc", got.ArtifactName)
}

func TestSearchAndFilter(t *testing.T) {
	ts := newTestServer(t, "development")
	ts.create(t, `{"artifact_name":"Viking Sword","artifact_type":"Weapons"}`)
	ts.create(t, `{"artifact_name":"Bronze SWORDFISH hook","artifact_type":"Tool"}`)
	ts.create(t, `{"artifact_name":"Stone Axe","artifact_type":"Tool"}`)

	names := func(rec *httptest.ResponseRecorder) []string {
		require.Equal(t, http.StatusOK, rec.Code)
		var out []string
		for _, a := range decode[[]models.Artifact](t, rec) {
			out = append(out, a.ArtifactName)
		}
		return out
	}

	assert.Len(t, names(ts.do(t, http.MethodGet, "/all-historical-data", "")), 3)
	assert.Equal(t, []string{"Viking Sword", "Bronze SWORDFISH hook"},
		names(ts.do(t, http.MethodGet, "/all-historical-data?search=sword", "")))
	assert.Equal(t, []string{"Bronze SWORDFISH hook", "Stone Axe"},
		names(ts.do(t, http.MethodGet, "/all-historical-data?filter=Tool", "")))
	assert.Equal(t, []string{"Bronze SWORDFISH hook", "Stone Axe"},
		names(ts.do(t, http.MethodGet, "/all-historical-data?search=viking&filter=Tool", "")),
		"filter overrides search")
}

func TestListingStorageFailure(t *testing.T) {
	ts := newTestServer(t, "development")
	ts.store.failWith = errStorageDown
	rec := ts.do(t, http.MethodGet, "/all-historical-data", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestExportArtifacts(t *testing.T) {
	ts := newTestServer(t, "development")
	ts.create(t, `{"artifact_name":"Sutton Hoo Helmet","artifact_type":"Weapons"}`)

	rec := ts.do(t, http.MethodGet, "/all-historical-data/export?filter=Weapons", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", rec.Header().Get(echo.HeaderContentType))
	assert.Contains(t, rec.Header().Get(echo.HeaderContentDisposition), "artifacts.xlsx")
	assert.NotZero(t, rec.Body.Len())
}
