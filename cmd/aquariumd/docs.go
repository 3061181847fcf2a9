package main

// General API documentation for swaggo. Run `make swagger-gen` to generate docs.
//
// @title           aquariumd API
// @version         1.0
// @description     HTTP API for the aquarium dashboard: water parameters, mood, animation state, care history and advice.
//
// @contact.name   aquariumd maintainers
// @contact.url    https://github.com/your-org/aquariumd
//
// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT
//
// @BasePath  /
//
// @schemes http
