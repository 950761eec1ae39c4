// internal/handlers/handlers_test.go
package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"github.com/propshare/propshare-backend/internal/config"
	"github.com/propshare/propshare-backend/internal/services"
)

// The services are constructed without stores: every request in this suite
// must be rejected by the handler layer before a store would be touched.
type HandlerValidationTestSuite struct {
	suite.Suite
	router *gin.Engine
}

func (s *HandlerValidationTestSuite) SetupSuite() {
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{Environment: "test"}

	distributionService := services.NewDistributionService(nil, nil, nil, nil, nil, cfg)
	paymentService := services.NewPaymentService(nil, nil)
	pollService := services.NewPollService(nil, nil, cfg)
	voteService := services.NewVoteService(nil, nil, nil, nil, cfg)
	holdingsService := services.NewHoldingsService(nil, nil)

	distributionHandler := NewDistributionHandler(distributionService, paymentService)
	pollHandler := NewPollHandler(pollService, voteService)
	holdingHandler := NewHoldingHandler(holdingsService)

	authed := func(c *gin.Context) {
		c.Set("user_id", uuid.New().String())
		c.Next()
	}

	s.router = gin.New()
	v1 := s.router.Group("/v1")
	v1.POST("/distributions", distributionHandler.DistributeRevenue)
	v1.GET("/distributions/:id", distributionHandler.GetDistribution)
	v1.POST("/payments/:id/paid", authed, distributionHandler.MarkPaymentPaid)
	v1.POST("/polls", pollHandler.CreatePoll)
	v1.POST("/polls/:id/votes", pollHandler.CastVote)
	v1.POST("/holdings/transfer", authed, holdingHandler.Transfer)
}

func (s *HandlerValidationTestSuite) do(method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		s.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, path, &buf)
	s.Require().NoError(err)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *HandlerValidationTestSuite) TestDistributeRevenueRejectsInvalidBody() {
	w := s.do("POST", "/v1/distributions", map[string]interface{}{
		"total_revenue": "not-a-number",
	})
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *HandlerValidationTestSuite) TestDistributeRevenueRejectsMissingFields() {
	w := s.do("POST", "/v1/distributions", map[string]interface{}{
		"total_revenue": "1000",
	})
	s.Equal(http.StatusBadRequest, w.Code)

	var resp map[string]interface{}
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.Equal(false, resp["success"])
}

func (s *HandlerValidationTestSuite) TestGetDistributionRejectsBadID() {
	w := s.do("GET", "/v1/distributions/not-a-uuid", nil)
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *HandlerValidationTestSuite) TestMarkPaymentPaidRequiresReference() {
	w := s.do("POST", "/v1/payments/"+uuid.NewString()+"/paid", map[string]interface{}{})
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *HandlerValidationTestSuite) TestCreatePollRequiresAuth() {
	w := s.do("POST", "/v1/polls", map[string]interface{}{
		"title": "Replace the roof",
	})
	s.Equal(http.StatusUnauthorized, w.Code)
}

func (s *HandlerValidationTestSuite) TestCastVoteRequiresAuth() {
	w := s.do("POST", "/v1/polls/"+uuid.NewString()+"/votes", map[string]interface{}{
		"vote": "yes",
	})
	s.Equal(http.StatusUnauthorized, w.Code)
}

func (s *HandlerValidationTestSuite) TestTransferRejectsMalformedQuantity() {
	w := s.do("POST", "/v1/holdings/transfer", map[string]interface{}{
		"quantity": "ten",
	})
	s.Equal(http.StatusBadRequest, w.Code)
}

func TestHandlerValidationTestSuite(t *testing.T) {
	suite.Run(t, new(HandlerValidationTestSuite))
}
