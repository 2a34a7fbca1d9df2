// Package machine reads the state docker-machine leaves behind: the shell
// environment printed by `docker-machine env` and the per-machine
// config.json records in its storage directory.
package machine
