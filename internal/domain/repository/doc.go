// Package repository define las entidades del servidor OAuth2 y los
// contratos de persistencia que consume el core.
//
// El core nunca habla con un motor concreto: recibe un Repositories ligado
// a una transacción (ver store.DataAccessLayer.RunInTx) y sólo usa
// load/save/delete. Las implementaciones viven en internal/store/memory e
// internal/store/pg.
//
//	┌───────────────────────────────────────────┐
//	│   services/oauth  ·  oauth/{tokens,...}   │
//	└───────────────────────────────────────────┘
//	                     │
//	                     ▼
//	┌───────────────────────────────────────────┐
//	│   domain/repository (entidades + ifaces)  │
//	└───────────────────────────────────────────┘
//	           │                   │
//	           ▼                   ▼
//	   store/memory            store/pg
//
// Convenciones:
//   - Context siempre es el primer parámetro.
//   - Get devuelve ErrNotFound (wrapeado) cuando la entidad no existe.
//   - Save es upsert; completa CreatedDate si viene vacío y pisa ModifiedDate.
//   - Los timestamps se guardan en UTC.
package repository
