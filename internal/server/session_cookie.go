package server

const SessionCookieName = "catalogd_session"
