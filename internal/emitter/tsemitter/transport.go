package tsemitter

import (
	"strings"
	"text/template"
)

const transportTemplate = Header + `
import axios, { AxiosError, AxiosResponse } from 'axios';

const request = axios.create({
  baseURL: {{ js .BaseURL }},
  timeout: {{ .TimeoutMS }},
});

/**
 * Problem Details JSON response (RFC 7807).
 */
export interface ServiceProblem {
  title: string;
  status: number;
  detail?: string;
}

/**
 * Error raised for failed requests carrying a problem body.
 * Detect it with error instanceof ServiceError.
 */
export class ServiceError extends Error {
  problem: ServiceProblem;
  response: AxiosResponse;

  constructor(problem: ServiceProblem, response: AxiosResponse) {
    super(problem.title);
    this.problem = problem;
    this.response = response;
  }
}

request.interceptors.response.use(response => response, error => {
  if (error.isAxiosError) {
    const response = (error as AxiosError).response;
    if (response && response.status !== 401 && response.data !== undefined && response.data !== null) {
      throw new ServiceError(response.data as ServiceProblem, response);
    }
  }
  throw error;
});

export default request;
`

var transportTmpl = template.Must(template.New("request.ts").
	Funcs(template.FuncMap{"js": singleQuote}).
	Parse(transportTemplate))

type transportData struct {
	BaseURL   string
	TimeoutMS int
}

// RenderTransport renders the axios transport module the service modules
// import by default.
func RenderTransport(baseURL string, timeoutMS int) (string, error) {
	var b strings.Builder
	if err := transportTmpl.Execute(&b, transportData{BaseURL: baseURL, TimeoutMS: timeoutMS}); err != nil {
		return "", err
	}
	return b.String(), nil
}
