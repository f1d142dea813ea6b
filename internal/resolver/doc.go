// Package resolver locates the stub-definitions artifact.
//
// Two strategies implement Resolver. Local reads the on-disk cache only and
// never touches the network. Remote talks to a Maven-layout repository: it
// probes the repository root, reads maven-metadata.xml to pin "latest",
// downloads the artifact into the cache and then answers from the cache like
// Local does. New picks one of them once, from configuration.
//
// The cache uses the Maven directory layout:
//
//	<cacheDir>/<group as path>/<module>/<version>/<module>-<version>.<ext>
//
// Every failure is reported as *api.ResolutionError. Resolution is a single
// attempt; nothing is retried.
package resolver
