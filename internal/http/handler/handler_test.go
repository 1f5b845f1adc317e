package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"biocharapi/internal/geodesy"
	"biocharapi/internal/imagery"
	"biocharapi/internal/model"
	"biocharapi/internal/service"
	serviceMocks "biocharapi/internal/service/mocks"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestHealthCheck(t *testing.T) {
	db, dbMock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	app := fiber.New()
	app.Get("/health", HealthCheck(db))

	t.Run("healthy", func(t *testing.T) {
		dbMock.ExpectPing().WillReturnError(nil)

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body map[string]string
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "healthy", body["status"])
	})

	t.Run("unhealthy", func(t *testing.T) {
		dbMock.ExpectPing().WillReturnError(errors.New("db error"))

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

		var body errorPayload
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "SERVICE_UNAVAILABLE", body.Error.Code)
	})
}

func TestLivenessProbe(t *testing.T) {
	app := fiber.New()
	app.Get("/healthz", LivenessProbe())

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	resp, _ := app.Test(req)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestListFeedstocks(t *testing.T) {
	app := fiber.New()
	app.Get("/feedstocks", ListFeedstocks())

	req := httptest.NewRequest(http.MethodGet, "/feedstocks", nil)
	resp, _ := app.Test(req)

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Data []struct {
			Name        string  `json:"name"`
			YieldFactor float64 `json:"yield_factor"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Len(t, body.Data, 8)
	assert.Equal(t, "Bamboo", body.Data[0].Name)
}

func postJSON(t *testing.T, app *fiber.App, path string, payload any) *http.Response {
	t.Helper()
	b, err := json.Marshal(payload)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func TestEstimateDirect(t *testing.T) {
	mockSvc := new(serviceMocks.MockEstimateService)
	app := fiber.New()
	app.Post("/estimates/direct", EstimateDirect(mockSvc))

	t.Run("success", func(t *testing.T) {
		expected := &model.Estimate{ID: uuid.New().String(), Method: model.MethodDirect, Feedstock: "Rice husk"}
		mockSvc.On("EstimateDirect", mock.Anything, service.DirectInput{
			Feedstock: "Rice husk",
			Hectares:  2,
		}).Return(expected, nil).Once()

		resp := postJSON(t, app, "/estimates/direct", map[string]any{
			"feedstock_type": "Rice husk",
			"hectares":       2,
		})

		assert.Equal(t, http.StatusCreated, resp.StatusCode)

		var result model.Estimate
		json.NewDecoder(resp.Body).Decode(&result)
		assert.Equal(t, expected.ID, result.ID)
		mockSvc.AssertExpectations(t)
	})

	t.Run("unknown feedstock", func(t *testing.T) {
		mockSvc.On("EstimateDirect", mock.Anything, mock.Anything).
			Return(nil, service.ErrUnknownFeedstock).Once()

		resp := postJSON(t, app, "/estimates/direct", map[string]any{
			"feedstock_type": "Moon dust",
			"hectares":       2,
		})

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		var body errorPayload
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "UNKNOWN_FEEDSTOCK", body.Error.Code)
		mockSvc.AssertExpectations(t)
	})

	t.Run("invalid area", func(t *testing.T) {
		mockSvc.On("EstimateDirect", mock.Anything, mock.Anything).
			Return(nil, service.ErrInvalidArea).Once()

		resp := postJSON(t, app, "/estimates/direct", map[string]any{
			"feedstock_type": "Rice husk",
			"hectares":       0,
		})

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		var body errorPayload
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "INVALID_AREA", body.Error.Code)
		mockSvc.AssertExpectations(t)
	})

	t.Run("malformed body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/estimates/direct", strings.NewReader("{not json"))
		req.Header.Set("Content-Type", "application/json")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		var body errorPayload
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "INVALID_BODY", body.Error.Code)
	})

	t.Run("service error", func(t *testing.T) {
		mockSvc.On("EstimateDirect", mock.Anything, mock.Anything).
			Return(nil, errors.New("db down")).Once()

		resp := postJSON(t, app, "/estimates/direct", map[string]any{
			"feedstock_type": "Rice husk",
			"hectares":       2,
		})

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})
}

func TestEstimatePolygon(t *testing.T) {
	mockSvc := new(serviceMocks.MockEstimateService)
	app := fiber.New()
	app.Post("/estimates/polygon", EstimatePolygon(mockSvc))

	t.Run("success", func(t *testing.T) {
		expected := &model.Estimate{ID: uuid.New().String(), Method: model.MethodPolygon}
		mockSvc.On("EstimatePolygon", mock.Anything, service.PolygonInput{
			Feedstock:   "Bamboo",
			Coordinates: "0,0\n0,1\n1,1",
		}).Return(expected, nil).Once()

		resp := postJSON(t, app, "/estimates/polygon", map[string]any{
			"feedstock_type": "Bamboo",
			"coordinates":    "0,0\n0,1\n1,1",
		})

		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})

	t.Run("too few points", func(t *testing.T) {
		mockSvc.On("EstimatePolygon", mock.Anything, mock.Anything).
			Return(nil, geodesy.ErrInsufficientPoints).Once()

		resp := postJSON(t, app, "/estimates/polygon", map[string]any{
			"feedstock_type": "Bamboo",
			"coordinates":    "0,0\n1,1",
		})

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		var body errorPayload
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "INSUFFICIENT_POINTS", body.Error.Code)
		mockSvc.AssertExpectations(t)
	})

	t.Run("bad coordinates", func(t *testing.T) {
		mockSvc.On("EstimatePolygon", mock.Anything, mock.Anything).
			Return(nil, geodesy.ErrInvalidCoordinates).Once()

		resp := postJSON(t, app, "/estimates/polygon", map[string]any{
			"feedstock_type": "Bamboo",
			"coordinates":    "x,y\nz,w\na,b",
		})

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		var body errorPayload
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "INVALID_COORDINATES", body.Error.Code)
		mockSvc.AssertExpectations(t)
	})
}

func multipartImage(t *testing.T, fields map[string]string, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for k, v := range fields {
		require.NoError(t, writer.WriteField(k, v))
	}
	if filename != "" {
		part, err := writer.CreateFormFile("file", filename)
		require.NoError(t, err)
		part.Write(content)
	}
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func TestEstimateImage(t *testing.T) {
	mockSvc := new(serviceMocks.MockEstimateService)
	app := fiber.New()
	app.Post("/estimates/image", EstimateImage(mockSvc))

	t.Run("success", func(t *testing.T) {
		expected := &model.Estimate{ID: uuid.New().String(), Method: model.MethodImage}
		mockSvc.On("EstimateImage", mock.Anything, mock.Anything, mock.MatchedBy(func(in service.ImageInput) bool {
			return in.Feedstock == "Sludge" && in.Filename == "plot.jpg" && in.PileHeightM == 0.25
		})).Return(expected, nil).Once()

		body, ct := multipartImage(t, map[string]string{
			"feedstock_type": "Sludge",
			"pile_height":    "0.25",
		}, "plot.jpg", []byte("fake image bytes"))

		req := httptest.NewRequest(http.MethodPost, "/estimates/image", body)
		req.Header.Set("Content-Type", ct)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusCreated, resp.StatusCode)

		var result model.Estimate
		json.NewDecoder(resp.Body).Decode(&result)
		assert.Equal(t, expected.ID, result.ID)
		mockSvc.AssertExpectations(t)
	})

	t.Run("no file", func(t *testing.T) {
		body, ct := multipartImage(t, map[string]string{"feedstock_type": "Sludge"}, "", nil)

		req := httptest.NewRequest(http.MethodPost, "/estimates/image", body)
		req.Header.Set("Content-Type", ct)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "FILE_REQUIRED", res.Error.Code)
	})

	t.Run("bad pile height", func(t *testing.T) {
		body, ct := multipartImage(t, map[string]string{
			"feedstock_type": "Sludge",
			"pile_height":    "tall",
		}, "plot.jpg", []byte("x"))

		req := httptest.NewRequest(http.MethodPost, "/estimates/image", body)
		req.Header.Set("Content-Type", ct)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "INVALID_PILE_HEIGHT", res.Error.Code)
	})

	t.Run("invalid image", func(t *testing.T) {
		mockSvc.On("EstimateImage", mock.Anything, mock.Anything, mock.Anything).
			Return(nil, imagery.ErrInvalidImage).Once()

		body, ct := multipartImage(t, map[string]string{"feedstock_type": "Sludge"}, "plot.jpg", []byte("not an image"))

		req := httptest.NewRequest(http.MethodPost, "/estimates/image", body)
		req.Header.Set("Content-Type", ct)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "INVALID_IMAGE", res.Error.Code)
		mockSvc.AssertExpectations(t)
	})
}

func TestListEstimates(t *testing.T) {
	mockSvc := new(serviceMocks.MockEstimateService)
	app := fiber.New()
	app.Get("/estimates", ListEstimates(mockSvc))

	t.Run("success", func(t *testing.T) {
		expectedRes := &service.EstimateListResult{
			Items: []model.Estimate{{ID: uuid.New().String(), Feedstock: "Bamboo"}},
			Total: 1,
		}
		mockSvc.On("List", mock.Anything, 10, 0).Return(expectedRes, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/estimates?limit=10&offset=0", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var result service.EstimateListResult
		json.NewDecoder(resp.Body).Decode(&result)
		assert.Len(t, result.Items, 1)
		assert.Equal(t, 1, result.Total)
		mockSvc.AssertExpectations(t)
	})

	t.Run("invalid limit", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/estimates?limit=abc", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		var body errorPayload
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "INVALID_LIMIT", body.Error.Code)
	})

	t.Run("service error", func(t *testing.T) {
		mockSvc.On("List", mock.Anything, 10, 0).Return(nil, errors.New("service error")).Once()

		req := httptest.NewRequest(http.MethodGet, "/estimates", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})
}

func TestGetEstimate(t *testing.T) {
	mockSvc := new(serviceMocks.MockEstimateService)
	app := fiber.New()
	app.Get("/estimates/:id", GetEstimate(mockSvc))

	t.Run("success", func(t *testing.T) {
		id := uuid.New().String()
		expected := &model.Estimate{ID: id, Feedstock: "Corn cobs"}
		mockSvc.On("Get", mock.Anything, id).Return(expected, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/estimates/"+id, nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var result model.Estimate
		json.NewDecoder(resp.Body).Decode(&result)
		assert.Equal(t, id, result.ID)
		mockSvc.AssertExpectations(t)
	})

	t.Run("not found", func(t *testing.T) {
		id := uuid.New().String()
		mockSvc.On("Get", mock.Anything, id).Return(nil, service.ErrNotFound).Once()

		req := httptest.NewRequest(http.MethodGet, "/estimates/"+id, nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "NOT_FOUND", res.Error.Code)
		mockSvc.AssertExpectations(t)
	})

	t.Run("invalid id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/estimates/invalid-uuid", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "INVALID_ID", res.Error.Code)
	})

	t.Run("service error", func(t *testing.T) {
		id := uuid.New().String()
		mockSvc.On("Get", mock.Anything, id).Return(nil, errors.New("db error")).Once()

		req := httptest.NewRequest(http.MethodGet, "/estimates/"+id, nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})
}

func TestDeleteEstimate(t *testing.T) {
	mockSvc := new(serviceMocks.MockEstimateService)
	app := fiber.New()
	app.Delete("/estimates/:id", DeleteEstimate(mockSvc))

	t.Run("success", func(t *testing.T) {
		id := uuid.New().String()
		mockSvc.On("Delete", mock.Anything, id).Return(nil).Once()

		req := httptest.NewRequest(http.MethodDelete, "/estimates/"+id, nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})

	t.Run("not found", func(t *testing.T) {
		id := uuid.New().String()
		mockSvc.On("Delete", mock.Anything, id).Return(service.ErrNotFound).Once()

		req := httptest.NewRequest(http.MethodDelete, "/estimates/"+id, nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "NOT_FOUND", res.Error.Code)
		mockSvc.AssertExpectations(t)
	})

	t.Run("service error", func(t *testing.T) {
		id := uuid.New().String()
		mockSvc.On("Delete", mock.Anything, id).Return(errors.New("delete error")).Once()

		req := httptest.NewRequest(http.MethodDelete, "/estimates/"+id, nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})
}

func TestRouting(t *testing.T) {
	app := fiber.New(fiber.Config{
		ErrorHandler: ErrorHandler(),
	})

	mockSvc := new(serviceMocks.MockEstimateService)
	// Register all routes
	RegisterRoutes(app, nil, mockSvc)

	t.Run("not found route", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/non-existent", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "NOT_FOUND", res.Error.Code)
	})

	t.Run("method not allowed", func(t *testing.T) {
		// Health endpoint only allows GET
		req := httptest.NewRequest(http.MethodPost, "/health", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "METHOD_NOT_ALLOWED", res.Error.Code)
	})
}
