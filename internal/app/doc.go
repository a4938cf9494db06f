// Package app contains the core application logic. It defines the main App
// struct and its lifecycle: building the backend registry and the host,
// running the loading pass as a startup hook and reporting the result,
// decoupled from any specific entrypoint like a CLI or server.
package app
