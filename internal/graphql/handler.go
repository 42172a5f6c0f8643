package graphql

import (
	"context"
	_ "embed"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"

	"github.com/shopx-dev/shopx/internal/apperr"
	"github.com/shopx-dev/shopx/internal/session"
	"github.com/shopx-dev/shopx/internal/store"
	"github.com/shopx-dev/shopx/internal/usercontext"
)

//go:embed schema.graphql
var schemaSDL string

var schema = gqlparser.MustLoadSchema(&ast.Source{Name: "schema.graphql", Input: schemaSDL})

const codeInternal = "INTERNAL_SERVER_ERROR"

// UserDirectory is the slice of the user store the endpoint needs.
type UserDirectory interface {
	GetUser(ctx context.Context, id int) (*store.User, error)
	Authenticate(ctx context.Context, email, password string) (*store.User, error)
	UpdateProfile(ctx context.Context, id int, email, name *string) (*store.User, error)
}

// ContextService aggregates and caches the per-user context snapshot.
type ContextService interface {
	Get(ctx context.Context, userID int) (*usercontext.Snapshot, error)
	Refresh(ctx context.Context, userID int) (*usercontext.Snapshot, error)
	Invalidate(ctx context.Context, userID int) error
}

// Handler serves the /graphql endpoint for the session and user-context
// operations. Commerce CRUD lives in its own resolver layer.
type Handler struct {
	sessions *session.Store
	codec    session.CookieCodec
	users    UserDirectory
	contexts ContextService
}

func NewHandler(sessions *session.Store, codec session.CookieCodec, users UserDirectory, contexts ContextService) *Handler {
	return &Handler{
		sessions: sessions,
		codec:    codec,
		users:    users,
		contexts: contexts,
	}
}

type graphQLRequest struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName"`
	Variables     map[string]any `json:"variables"`
}

type graphQLError struct {
	Message    string         `json:"message"`
	Path       []any          `json:"path,omitempty"`
	Extensions map[string]any `json:"extensions,omitempty"`
}

type graphQLResponse struct {
	Data   any            `json:"data"`
	Errors []graphQLError `json:"errors,omitempty"`
}

// Handle executes one GraphQL request. Responses are always 200 with any
// failures reported in the errors list; when errors are present data is
// null, matching what API clients already expect from this endpoint.
func (h *Handler) Handle(c echo.Context) error {
	req, err := decodeRequest(c)
	if err != nil {
		return c.JSON(http.StatusOK, errorResponse(graphQLError{
			Message:    err.Error(),
			Extensions: map[string]any{"code": apperr.CodeInvalidArgument},
		}))
	}

	rc := NewRequestContext(c.Request(), h.sessions, h.codec)

	doc, listErr := gqlparser.LoadQuery(schema, req.Query)
	if len(listErr) > 0 {
		resp := graphQLResponse{}
		for _, gqlErr := range listErr {
			log.Printf("graphql: query rejected: %v", gqlErr.Message)
			resp.Errors = append(resp.Errors, graphQLError{
				Message:    gqlErr.Message,
				Extensions: map[string]any{"code": "GRAPHQL_VALIDATION_FAILED"},
			})
		}
		return c.JSON(http.StatusOK, resp)
	}

	op := doc.Operations.ForName(req.OperationName)
	if op == nil {
		return c.JSON(http.StatusOK, errorResponse(graphQLError{
			Message:    "operation not found",
			Extensions: map[string]any{"code": apperr.CodeInvalidArgument},
		}))
	}

	data, errs := h.execute(rc, op, req.Variables)

	rc.FlushCookies(c.Response().Header())

	resp := graphQLResponse{Data: data, Errors: errs}
	if len(resp.Errors) > 0 {
		resp.Data = nil
	}
	return c.JSON(http.StatusOK, resp)
}

func decodeRequest(c echo.Context) (*graphQLRequest, error) {
	req := &graphQLRequest{}
	switch c.Request().Method {
	case http.MethodGet:
		req.Query = c.QueryParam("query")
		req.OperationName = c.QueryParam("operationName")
		if raw := c.QueryParam("variables"); raw != "" {
			if err := json.Unmarshal([]byte(raw), &req.Variables); err != nil {
				return nil, apperr.InvalidArgument("variables must be a JSON object")
			}
		}
	default:
		if err := json.NewDecoder(c.Request().Body).Decode(req); err != nil {
			return nil, apperr.InvalidArgument("request body must be a JSON GraphQL request")
		}
	}
	if strings.TrimSpace(req.Query) == "" {
		return nil, apperr.InvalidArgument("must provide a query")
	}
	return req, nil
}

func errorResponse(errs ...graphQLError) graphQLResponse {
	return graphQLResponse{Errors: errs}
}

func (h *Handler) execute(rc *RequestContext, op *ast.OperationDefinition, vars map[string]any) (map[string]any, []graphQLError) {
	if vars == nil {
		vars = map[string]any{}
	}

	data := map[string]any{}
	var errs []graphQLError
	for _, selection := range op.SelectionSet {
		field, ok := selection.(*ast.Field)
		if !ok {
			continue
		}
		key := field.Alias
		if key == "" {
			key = field.Name
		}
		if field.Name == "__typename" {
			if op.Operation == ast.Mutation {
				data[key] = "Mutation"
			} else {
				data[key] = "Query"
			}
			continue
		}

		value, err := h.resolve(rc, op.Operation, field.Name, field.ArgumentMap(vars))
		if err != nil {
			log.Printf("graphql: %s.%s failed: %v", op.Operation, field.Name, err)
			errs = append(errs, toGraphQLError(err, key))
			data[key] = nil
			continue
		}
		data[key] = value
	}
	return data, errs
}

func toGraphQLError(err error, path string) graphQLError {
	code := apperr.CodeOf(err)
	message := err.Error()
	if code == "" {
		// Internal details stay in the log.
		code = codeInternal
		message = "internal server error"
	}
	return graphQLError{
		Message:    message,
		Path:       []any{path},
		Extensions: map[string]any{"code": code},
	}
}

func (h *Handler) resolve(rc *RequestContext, opType ast.Operation, name string, args map[string]any) (any, error) {
	ctx := rc.Request.Context()

	if opType == ast.Mutation {
		switch name {
		case "login":
			return h.login(rc, args)
		case "logout":
			return h.logout(rc), nil
		case "logoutUserSessions":
			return h.logoutUserSessions(rc, args)
		case "impersonateUser":
			return h.impersonateUser(rc, args)
		case "redeemImpersonation":
			return h.redeemImpersonation(rc, args)
		case "updateProfile":
			return h.updateProfile(rc, args)
		case "refreshUserContext":
			userID, err := h.authorizeUserScoped(rc, args)
			if err != nil {
				return nil, err
			}
			return h.contexts.Refresh(ctx, userID)
		}
		return nil, apperr.InvalidArgument("unknown mutation " + name)
	}

	switch name {
	case "me":
		if rc.Session == nil {
			return nil, nil
		}
		return userFromSession(rc.Session), nil
	case "userContext":
		userID, err := h.authorizeUserScoped(rc, args)
		if err != nil {
			return nil, err
		}
		return h.contexts.Get(ctx, userID)
	}
	return nil, apperr.InvalidArgument("unknown query " + name)
}

func (h *Handler) login(rc *RequestContext, args map[string]any) (any, error) {
	ctx := rc.Request.Context()
	email := strings.TrimSpace(stringArg(args, "email"))
	password := stringArg(args, "password")
	if email == "" || password == "" {
		return nil, apperr.InvalidArgument("email and password are required")
	}

	user, err := h.users.Authenticate(ctx, email, password)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperr.Unauthenticated("invalid email or password")
	}

	record, err := h.sessions.Create(ctx, session.CreateParams{
		UserID: user.ID,
		Email:  user.Email,
		Name:   user.Name,
		Role:   user.Role,
	})
	if err != nil {
		return nil, err
	}

	rc.AppendCookie(h.codec.Build(h.codec.NameForRole(record.Role), record.ID))
	return map[string]any{"user": user, "session": record}, nil
}

// logout invalidates the current session and clears its cookie. Without a
// resolved session both recognized cookies are cleared so a stale cookie of
// either kind cannot survive the logout.
func (h *Handler) logout(rc *RequestContext) bool {
	if rc.Session == nil {
		for _, cookie := range h.codec.BuildExpiredAll() {
			rc.AppendCookie(cookie)
		}
		return false
	}

	invalidated := h.sessions.Invalidate(rc.Request.Context(), rc.Session.ID)
	rc.AppendCookie(h.codec.BuildExpired(h.codec.NameForRole(rc.Session.Role)))
	return invalidated
}

func (h *Handler) logoutUserSessions(rc *RequestContext, args map[string]any) (any, error) {
	if _, err := RequireSupport(rc); err != nil {
		return nil, err
	}
	userID, err := intArg(args, "userId")
	if err != nil {
		return nil, err
	}
	count := h.sessions.InvalidateAllForUser(rc.Request.Context(), userID)
	return count > 0, nil
}

func (h *Handler) impersonateUser(rc *RequestContext, args map[string]any) (any, error) {
	admin, err := RequireSupport(rc)
	if err != nil {
		return nil, err
	}
	userID, err := intArg(args, "userId")
	if err != nil {
		return nil, err
	}

	ctx := rc.Request.Context()
	target, err := h.users.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if target == nil {
		return nil, apperr.NotFound("user " + strconv.Itoa(userID) + " not found")
	}

	return h.sessions.CreateImpersonationTicket(ctx, admin, target.ID), nil
}

func (h *Handler) redeemImpersonation(rc *RequestContext, args map[string]any) (any, error) {
	ctx := rc.Request.Context()
	token := strings.TrimSpace(stringArg(args, "token"))
	if token == "" {
		return nil, apperr.InvalidArgument("token is required")
	}

	redeemed := h.sessions.RedeemImpersonationTicket(ctx, token)
	if redeemed == nil {
		return nil, apperr.NotFound("invalid or expired impersonation token")
	}

	user, err := h.users.GetUser(ctx, redeemed.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperr.NotFound("user " + strconv.Itoa(redeemed.UserID) + " not found")
	}

	adminID := redeemed.AdminID
	record, err := h.sessions.Create(ctx, session.CreateParams{
		UserID:         user.ID,
		Email:          user.Email,
		Name:           user.Name,
		Role:           user.Role,
		ImpersonatedBy: &adminID,
	})
	if err != nil {
		return nil, err
	}

	rc.AppendCookie(h.codec.Build(h.codec.NameForRole(record.Role), record.ID))
	return user, nil
}

func (h *Handler) updateProfile(rc *RequestContext, args map[string]any) (any, error) {
	record, err := RequireAuthenticated(rc)
	if err != nil {
		return nil, err
	}
	email := optionalStringArg(args, "email")
	name := optionalStringArg(args, "name")
	if email == nil && name == nil {
		return nil, apperr.InvalidArgument("nothing to update")
	}

	ctx := rc.Request.Context()
	user, err := h.users.UpdateProfile(ctx, record.UserID, email, name)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperr.NotFound("user " + strconv.Itoa(record.UserID) + " not found")
	}

	// Keep the live request context and the stored record consistent with
	// the edit; this is the one in-place session mutation allowed.
	record.Email = user.Email
	record.Name = user.Name
	h.sessions.Update(ctx, record)

	if err := h.contexts.Invalidate(ctx, user.ID); err != nil {
		log.Printf("graphql: invalidate user context for %d: %v", user.ID, err)
	}
	return user, nil
}

// authorizeUserScoped admits the owner of the user-scoped resource, or any
// support session.
func (h *Handler) authorizeUserScoped(rc *RequestContext, args map[string]any) (int, error) {
	userID, err := intArg(args, "userId")
	if err != nil {
		return 0, err
	}
	record, err := RequireAuthenticated(rc)
	if err != nil {
		return 0, err
	}
	if record.Role == session.RoleSupport {
		return userID, nil
	}
	if _, err := RequireOwner(rc, userID); err != nil {
		return 0, err
	}
	return userID, nil
}

func userFromSession(record *session.Record) *store.User {
	return &store.User{
		ID:    record.UserID,
		Email: record.Email,
		Name:  record.Name,
		Role:  record.Role,
	}
}

func stringArg(args map[string]any, name string) string {
	value, _ := args[name].(string)
	return value
}

func optionalStringArg(args map[string]any, name string) *string {
	if value, ok := args[name].(string); ok {
		return &value
	}
	return nil
}

func intArg(args map[string]any, name string) (int, error) {
	switch value := args[name].(type) {
	case string:
		parsed, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return 0, apperr.InvalidArgument(name + " must be an integer id")
		}
		return parsed, nil
	case int:
		return value, nil
	case int64:
		return int(value), nil
	case float64:
		return int(value), nil
	case json.Number:
		parsed, err := value.Int64()
		if err != nil {
			return 0, apperr.InvalidArgument(name + " must be an integer id")
		}
		return int(parsed), nil
	}
	return 0, apperr.InvalidArgument(name + " must be an integer id")
}
