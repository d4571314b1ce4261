package handler

// APIPrefix is the base path of the public JSON API.
const APIPrefix = "/api"
