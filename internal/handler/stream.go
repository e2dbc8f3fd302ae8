package handler

import (
	goerrors "errors"
	"io"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/xorcism-go/internal/cache"
	"github.com/xorcism-go/internal/errors"
	"github.com/xorcism-go/internal/keyring"
	"github.com/xorcism-go/internal/obfuscate"
	"github.com/xorcism-go/internal/trace"
)

const (
	headerStreamKey    = "X-Stream-Key"
	headerStreamOffset = "X-Stream-Offset"
)

// StreamHandler streams request bodies through the transform. The same
// endpoint encodes and decodes, the operation being its own inverse.
type StreamHandler struct {
	keyDAO   *keyring.KeyDAO
	keyCache *cache.KeyCache
}

// NewStreamHandler creates a new stream handler. keyCache may be nil to
// disable derived-key caching.
func NewStreamHandler(keyDAO *keyring.KeyDAO, keyCache *cache.KeyCache) *StreamHandler {
	return &StreamHandler{
		keyDAO:   keyDAO,
		keyCache: keyCache,
	}
}

// Handle transforms the request body onto the response. The key comes either
// from the X-Stream-Key header (an inline key spec) or from the `key` query
// parameter naming a keyring entry. X-Stream-Offset resumes the key stream
// at a byte offset.
func (h *StreamHandler) Handle(c *gin.Context) {
	spec, tag, err := h.resolveSpec(c)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.Request = c.Request.WithContext(trace.WithKeyTag(c.Request.Context(), tag))

	key, err := h.resolveKey(spec)
	if err != nil {
		if goerrors.Is(err, obfuscate.ErrEmptyKey) {
			RespondError(c, errors.NewBadRequest("key spec resolves to an empty key"))
			return
		}
		RespondError(c, errors.NewBadRequestWithCause("invalid key spec", err))
		return
	}

	offset, err := parseOffset(c.GetHeader(headerStreamOffset))
	if err != nil {
		RespondError(c, err)
		return
	}

	transform, err := obfuscate.New(key)
	if err != nil {
		RespondError(c, errors.NewBadRequestWithCause("invalid key", err))
		return
	}
	if err := transform.SetPosition(offset); err != nil {
		RespondError(c, errors.NewBadRequestWithCause("invalid offset", err))
		return
	}

	c.Header("Content-Type", "application/octet-stream")
	c.Header("X-Stream-Algorithm", transform.Algorithm())
	c.Status(200)

	n, err := io.Copy(c.Writer, obfuscate.NewReader(c.Request.Body, transform))

	reqID := trace.GetRequestID(c.Request.Context())
	if err != nil {
		// Headers are already out; all that is left is to log and cut the stream.
		log.Error().Err(err).Str("req_id", reqID).Str("key", tag).Int64("bytes", n).Msg("Stream aborted")
		c.Abort()
		return
	}
	log.Debug().Str("req_id", reqID).Str("key", tag).Int64("bytes", n).Msg("Stream complete")
}

// resolveSpec picks the key spec from the inline header or the keyring.
// The tag identifies the key in logs without exposing material.
func (h *StreamHandler) resolveSpec(c *gin.Context) (spec, tag string, err error) {
	if inline := c.GetHeader(headerStreamKey); inline != "" {
		return inline, "inline", nil
	}
	name := c.Query("key")
	if name == "" {
		return "", "", errors.NewBadRequest("missing key: set " + headerStreamKey + " or ?key=<name>")
	}
	stored, derr := h.keyDAO.Get(name)
	if derr != nil {
		if goerrors.Is(derr, keyring.ErrKeyNotFound) {
			return "", "", errors.NewNotFound("key not found: " + name)
		}
		return "", "", errors.NewInternalWithCause("failed to load key", derr)
	}
	return stored.Spec, name, nil
}

func (h *StreamHandler) resolveKey(spec string) ([]byte, error) {
	if h.keyCache == nil {
		return obfuscate.ResolveKey(spec)
	}
	return h.keyCache.GetOrResolve(spec, func() ([]byte, error) {
		return obfuscate.ResolveKey(spec)
	})
}

func parseOffset(raw string) (int64, error) {
	if raw == "" {
		return 0, nil
	}
	offset, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || offset < 0 {
		return 0, errors.NewBadRequest("invalid " + headerStreamOffset + " header")
	}
	return offset, nil
}
