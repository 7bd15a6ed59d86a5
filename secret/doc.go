// Package secret provides strict environment expansion for sensitive
// configuration values such as the cache store password and encryption
// key. Unlike os.ExpandEnv, a ${VAR} reference to a variable missing
// from the environment is an error rather than an empty string.
package secret
