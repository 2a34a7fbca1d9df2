// Package config defines anchorage's settings: the docker-machine driver
// defaults used for new machines and the executor settings for a run.
//
// Settings are read from a YAML file (by default ~/.anchorage/config.yaml),
// then overridden from the environment. A missing file means defaults.
package config
