package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"interview-portal-service/internal/app"
	"interview-portal-service/internal/domain"
)

// Handler exposes the portal's use cases as a JSON API.
type Handler struct {
	catalog    *app.CatalogService
	interviews *app.InterviewService
	selector   *app.Selector
	scorer     *app.Scorer
	aggregator *app.Aggregator
}

func NewHandler(catalog *app.CatalogService, interviews *app.InterviewService, selector *app.Selector, scorer *app.Scorer, aggregator *app.Aggregator) *Handler {
	return &Handler{
		catalog:    catalog,
		interviews: interviews,
		selector:   selector,
		scorer:     scorer,
		aggregator: aggregator,
	}
}

// Register mounts all routes on the mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	mux.HandleFunc("POST /sessions", h.startSession)
	mux.HandleFunc("GET /sessions/{id}/questions", h.sessionQuestions)
	mux.HandleFunc("POST /sessions/{id}/answers", h.submitAnswers)
	mux.HandleFunc("GET /sessions/{id}/results", h.sessionResults)

	mux.HandleFunc("GET /positions", h.listPositions)
	mux.HandleFunc("POST /positions", h.createPosition)
	mux.HandleFunc("PUT /positions/{id}", h.updatePosition)
	mux.HandleFunc("DELETE /positions/{id}", h.deactivatePosition)
	mux.HandleFunc("GET /positions/{id}/ranking", h.positionRanking)
	mux.HandleFunc("POST /positions/{id}/topics", h.createTopic)

	mux.HandleFunc("PUT /topics/{id}", h.updateTopic)
	mux.HandleFunc("POST /topics/{id}/questions", h.addQuestion)
	mux.HandleFunc("DELETE /questions/{id}", h.deleteQuestion)

	mux.HandleFunc("POST /results", h.recordResult)
}

type startSessionRequest struct {
	CandidateID string `json:"candidateId"`
	PositionID  int64  `json:"positionId"`
	Mock        bool   `json:"mock"`
}

func (h *Handler) startSession(w http.ResponseWriter, r *http.Request) {
	var req startSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	session, err := h.interviews.Start(r.Context(), req.CandidateID, req.PositionID, req.Mock)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, session)
}

func (h *Handler) sessionQuestions(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	selected, err := h.selector.Questions(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if !selected.RevealAnswers {
		hideCorrectness(&selected)
	}
	writeJSON(w, http.StatusOK, selected)
}

type submitRequest struct {
	// question ID -> chosen answer ID; JSON object keys arrive as strings
	Answers map[string]int64 `json:"answers"`
}

func (h *Handler) submitAnswers(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	chosen := make(map[int64]int64, len(req.Answers))
	for key, answerID := range req.Answers {
		questionID, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid question id "+key)
			return
		}
		chosen[questionID] = answerID
	}
	summary, err := h.scorer.Submit(r.Context(), id, chosen)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *Handler) sessionResults(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	summary, err := h.interviews.Results(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *Handler) listPositions(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("active") == "true"
	positions, err := h.catalog.ListPositions(r.Context(), activeOnly)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, positions)
}

type positionRequest struct {
	Name     string  `json:"name"`
	TopicIDs []int64 `json:"topicIds"`
}

func (h *Handler) createPosition(w http.ResponseWriter, r *http.Request) {
	var req positionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	pos, err := h.catalog.CreatePosition(r.Context(), req.Name, req.TopicIDs)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, pos)
}

func (h *Handler) updatePosition(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req positionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.catalog.UpdatePosition(r.Context(), id, req.Name, req.TopicIDs); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) deactivatePosition(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.catalog.DeactivatePosition(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) positionRanking(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	ranking, err := h.aggregator.Rank(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ranking)
}

type questionPayload struct {
	Text       string `json:"text"`
	Difficulty string `json:"difficulty"`
	Answers    []struct {
		Text    string `json:"text"`
		Correct bool   `json:"correct"`
	} `json:"answers"`
}

func (p questionPayload) toDomain() domain.Question {
	q := domain.Question{Text: p.Text, Difficulty: domain.ParseDifficulty(p.Difficulty)}
	for _, a := range p.Answers {
		q.Answers = append(q.Answers, domain.Answer{Text: a.Text, Correct: a.Correct})
	}
	return q
}

type createTopicRequest struct {
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Questions   []questionPayload `json:"questions"`
}

func (h *Handler) createTopic(w http.ResponseWriter, r *http.Request) {
	positionID, ok := pathID(w, r)
	if !ok {
		return
	}
	var req createTopicRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	questions := make([]domain.Question, 0, len(req.Questions))
	for _, p := range req.Questions {
		questions = append(questions, p.toDomain())
	}
	topic, err := h.catalog.CreateTopic(r.Context(), positionID, req.Name, req.Description, questions)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, topic)
}

type updateTopicRequest struct {
	Name         string            `json:"name"`
	Description  string            `json:"description"`
	QuestionText map[string]string `json:"questionText"`
	AnswerText   map[string]string `json:"answerText"`
}

func (h *Handler) updateTopic(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req updateTopicRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	questionText, err := parseIDMap(req.QuestionText)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	answerText, err := parseIDMap(req.AnswerText)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.catalog.UpdateTopic(r.Context(), id, req.Name, req.Description, questionText, answerText); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) addQuestion(w http.ResponseWriter, r *http.Request) {
	topicID, ok := pathID(w, r)
	if !ok {
		return
	}
	var req questionPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	q, err := h.catalog.AddQuestion(r.Context(), topicID, req.toDomain())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, q)
}

func (h *Handler) deleteQuestion(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.catalog.DeleteQuestion(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type recordResultRequest struct {
	CandidateID string `json:"candidateId"`
	SessionID   int64  `json:"sessionId"`
	FinalScore  int    `json:"finalScore"`
	Feedback    string `json:"feedback"`
}

func (h *Handler) recordResult(w http.ResponseWriter, r *http.Request) {
	var req recordResultRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	result, err := h.aggregator.RecordResult(r.Context(), req.CandidateID, req.SessionID, req.FinalScore, req.Feedback)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

// hideCorrectness strips the correctness flags from a real session's
// questions before they reach the candidate.
func hideCorrectness(selected *app.SelectedQuestions) {
	for i := range selected.Questions {
		answers := make([]domain.Answer, len(selected.Questions[i].Answers))
		copy(answers, selected.Questions[i].Answers)
		for j := range answers {
			answers[j].Correct = false
		}
		selected.Questions[i].Answers = answers
	}
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}

func parseIDMap(in map[string]string) (map[int64]string, error) {
	if len(in) == 0 {
		return nil, nil
	}
	out := make(map[int64]string, len(in))
	for key, value := range in {
		id, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			return nil, errors.New("invalid id " + key)
		}
		out[id] = value
	}
	return out, nil
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case domain.IsNotFound(err):
		writeError(w, http.StatusNotFound, err.Error())
	case domain.IsValidation(err):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		log.Printf("internal error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("write response: %v", err)
	}
}
