package logger

import (
	"time"

	"go.uber.org/zap"
)

// Campos estándar para logs consistentes en todo el servicio.

func RequestID(v string) zap.Field { return zap.String("request_id", v) }
func Method(v string) zap.Field    { return zap.String("method", v) }
func Path(v string) zap.Field      { return zap.String("path", v) }
func Status(v int) zap.Field       { return zap.Int("status", v) }

func Duration(v time.Duration) zap.Field { return zap.Duration("duration", v) }
func ClientIP(v string) zap.Field        { return zap.String("client_ip", v) }

func UserID(v string) zap.Field { return zap.String("user_id", v) }

// Email crea un campo para el email (usar con cuidado en prod).
func Email(v string) zap.Field { return zap.String("email", v) }

// TokenID identifica un refresh token por su hash, nunca por el valor.
func TokenID(v string) zap.Field { return zap.String("token_id", v) }

func KID(v string) zap.Field { return zap.String("kid", v) }

func Component(v string) zap.Field { return zap.String("component", v) }
func Op(v string) zap.Field        { return zap.String("op", v) }

// Layer crea un campo para la capa (controller, service, store).
func Layer(v string) zap.Field { return zap.String("layer", v) }

func Err(err error) zap.Field { return zap.Error(err) }

func Count(v int) zap.Field         { return zap.Int("count", v) }
func Int64(k string, v int64) zap.Field { return zap.Int64(k, v) }
func String(k, v string) zap.Field  { return zap.String(k, v) }
