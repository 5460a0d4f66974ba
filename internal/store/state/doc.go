// Package state implementa AuthenticatorStateRepository fuera de la base de
// datos: en memoria del proceso (go-cache) o en Redis, para despliegues con
// varias réplicas detrás de un balanceador.
//
// Ambas implementaciones garantizan que Consume es first-writer-wins.
package state
