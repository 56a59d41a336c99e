package engine

import "github.com/google/uuid"

// objectID derives the stable id of an object from its package URI and
// name. Ids are deterministic so a replayed session carries the same ids,
// and they never change when positional refs are renormalized.
func objectID(packageURI, name string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(packageURI+"#"+name)).String()
}

// InstanceURI returns the instance package URI of a session.
func InstanceURI(sessionKey string) string {
	return "urn:session:" + sessionKey + "/instance"
}

// RepresentationInstanceURI returns the representation-instance package URI
// of a session.
func RepresentationInstanceURI(sessionKey string) string {
	return "urn:session:" + sessionKey + "/representation"
}
