package model

// ExternalIdentity is a verified identity produced by a federated login.
// The provider handshake itself happens upstream; by the time this value
// exists the attributes have been authenticated by the provider.
type ExternalIdentity struct {
	Provider  Provider
	SubjectID string
	Email     string
	Name      string
	AvatarURL string
}
