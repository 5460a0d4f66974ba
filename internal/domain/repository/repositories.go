package repository

// Repositories agrupa los repositorios ligados a una misma transacción.
type Repositories interface {
	Applications() ApplicationRepository
	Roles() RoleRepository
	Clients() ClientRepository
	Users() UserRepository
	Identities() IdentityRepository
	Tokens() TokenRepository
}
