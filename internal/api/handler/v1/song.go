package v1

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/choirhub/choir-api/internal/api/handler/v1/request"
	"github.com/choirhub/choir-api/internal/api/handler/v1/response"
	"github.com/choirhub/choir-api/internal/domain"
)

type SongService interface {
	CreateSong(ctx context.Context, actor domain.User, song domain.Song) (domain.Song, error)
	GetSong(ctx context.Context, id uint) (domain.Song, error)
	ListSongs(ctx context.Context, filter domain.SongFilter) ([]domain.Song, error)
	UpdateSong(ctx context.Context, id uint, song domain.Song) (domain.Song, error)
	DeleteSong(ctx context.Context, id uint) error
}

type SongHandler struct {
	svc SongService
}

func NewSongHandler(svc SongService) *SongHandler {
	return &SongHandler{
		svc: svc,
	}
}

// HandleListSongs godoc
// @Summary      List songs
// @Tags         songs
// @Produce      json
// @Param        q         query     string  false  "matches title or composer"
// @Param        category  query     string  false  "liturgical category"
// @Success      200       {array}   domain.Song
// @Failure      400       {object}  response.Err
// @Failure      500       {object}  response.Err
// @Router       /songs [get]
// @Security BearerAuth
func (h *SongHandler) HandleListSongs(ctx *gin.Context) {
	songs, err := h.svc.ListSongs(ctx.Request.Context(), domain.SongFilter{
		Query:    ctx.Query("q"),
		Category: ctx.Query("category"),
	})
	if err != nil {
		renderServiceErr(ctx, "HandleListSongs -> h.svc.ListSongs", err)
		return
	}

	ctx.JSON(http.StatusOK, songs)
}

// HandleGetSong godoc
// @Summary      Get a song
// @Tags         songs
// @Produce      json
// @Param        songID  path      int  true  "song ID"
// @Success      200     {object}  domain.Song
// @Failure      400     {object}  response.Err
// @Failure      404     {object}  response.Err
// @Failure      500     {object}  response.Err
// @Router       /songs/{songID} [get]
// @Security BearerAuth
func (h *SongHandler) HandleGetSong(ctx *gin.Context) {
	songID, respErr := parseIDParam(ctx, "songID")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	song, err := h.svc.GetSong(ctx.Request.Context(), songID)
	if err != nil {
		renderServiceErr(ctx, "HandleGetSong -> h.svc.GetSong", err)
		return
	}

	ctx.JSON(http.StatusOK, song)
}

// HandleCreateSong godoc
// @Summary      Add a song to the library
// @Tags         songs
// @Accept       json
// @Produce      json
// @Param        request  body      request.SongRequest  true  "song"
// @Success      201      {object}  domain.Song
// @Failure      400      {object}  response.Err
// @Failure      403      {object}  response.Err
// @Failure      500      {object}  response.Err
// @Router       /songs [post]
// @Security BearerAuth
func (h *SongHandler) HandleCreateSong(ctx *gin.Context) {
	actor, respErr := getUserFromContext(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	var req request.SongRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	song, err := h.svc.CreateSong(ctx.Request.Context(), actor, req.ToDomain())
	if err != nil {
		renderServiceErr(ctx, "HandleCreateSong -> h.svc.CreateSong", err)
		return
	}

	ctx.JSON(http.StatusCreated, song)
}

// HandleUpdateSong godoc
// @Summary      Update a song
// @Tags         songs
// @Accept       json
// @Produce      json
// @Param        songID   path      int                  true  "song ID"
// @Param        request  body      request.SongRequest  true  "song"
// @Success      200      {object}  domain.Song
// @Failure      400      {object}  response.Err
// @Failure      403      {object}  response.Err
// @Failure      404      {object}  response.Err
// @Failure      500      {object}  response.Err
// @Router       /songs/{songID} [put]
// @Security BearerAuth
func (h *SongHandler) HandleUpdateSong(ctx *gin.Context) {
	songID, respErr := parseIDParam(ctx, "songID")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	var req request.SongRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	song, err := h.svc.UpdateSong(ctx.Request.Context(), songID, req.ToDomain())
	if err != nil {
		renderServiceErr(ctx, "HandleUpdateSong -> h.svc.UpdateSong", err)
		return
	}

	ctx.JSON(http.StatusOK, song)
}

// HandleDeleteSong godoc
// @Summary      Delete a song
// @Tags         songs
// @Produce      json
// @Param        songID  path      int  true  "song ID"
// @Success      200     {object}  response.MessageResponse
// @Failure      400     {object}  response.Err
// @Failure      403     {object}  response.Err
// @Failure      404     {object}  response.Err
// @Failure      500     {object}  response.Err
// @Router       /songs/{songID} [delete]
// @Security BearerAuth
func (h *SongHandler) HandleDeleteSong(ctx *gin.Context) {
	songID, respErr := parseIDParam(ctx, "songID")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	if err := h.svc.DeleteSong(ctx.Request.Context(), songID); err != nil {
		renderServiceErr(ctx, "HandleDeleteSong -> h.svc.DeleteSong", err)
		return
	}

	ctx.JSON(http.StatusOK, response.MessageResponse{Message: "Song deleted successfully"})
}
