// Package logger expone un logger zap global con scoping por request.
//
// Init se llama una vez desde el CLI. Los middlewares HTTP inyectan en el
// contexto un logger con request_id/method/path, y el resto del código lo
// recupera con From(ctx):
//
//	log := logger.From(ctx).With(logger.Layer("service"), logger.Op("token.exchange"))
//	log.Info("bearer issued", logger.TokenID(tok.ID.String()))
//
// Nunca loguear secretos, passwords ni valores de tokens que aún no fueron
// emitidos.
package logger
