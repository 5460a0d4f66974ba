package logger

import (
	"time"

	"go.uber.org/zap"
)

// ─── HTTP ───

func RequestID(v string) zap.Field { return zap.String("request_id", v) }
func Method(v string) zap.Field { return zap.String("method", v) }
func Path(v string) zap.Field { return zap.String("path", v) }
func Status(v int) zap.Field { return zap.Int("status", v) }
func Duration(v time.Duration) zap.Field { return zap.Duration("duration", v) }
func Bytes(v int) zap.Field { return zap.Int("bytes", v) }
func ClientIP(v string) zap.Field { return zap.String("client_ip", v) }

// ─── OAuth ───

func ClientID(v string) zap.Field { return zap.String("client_id", v) }
func ApplicationID(v string) zap.Field { return zap.String("application_id", v) }
func UserID(v string) zap.Field { return zap.String("user_id", v) }

// TokenID loguea el id de un token ya emitido. Nunca usar con un token
// recibido del cliente antes de validarlo.
func TokenID(v string) zap.Field { return zap.String("token_id", v) }
func TokenType(v string) zap.Field { return zap.String("token_type", v) }
func GrantType(v string) zap.Field { return zap.String("grant_type", v) }
func ResponseType(v string) zap.Field { return zap.String("response_type", v) }
func Authenticator(v string) zap.Field { return zap.String("authenticator", v) }
func Scope(v string) zap.Field { return zap.String("scope", v) }

// ─── Sistema ───

func Component(v string) zap.Field { return zap.String("component", v) }

// Op es la operación en curso (ej: "token.authorization_code").
func Op(v string) zap.Field { return zap.String("op", v) }

// Layer es la capa: controller, service, store.
func Layer(v string) zap.Field { return zap.String("layer", v) }

func Err(err error) zap.Field { return zap.Error(err) }
func String(key, v string) zap.Field { return zap.String(key, v) }
func Int(key string, v int) zap.Field { return zap.Int(key, v) }
func Any(key string, v any) zap.Field { return zap.Any(key, v) }
